package main

import (
	"strings"
	"testing"
)

func TestRenderTablePadsAndAligns(t *testing.T) {
	out := renderTable(
		[]string{"Status", "Count"},
		[][]string{
			{"pending", "3"},
			{"completed"},
		},
		1,
	)

	requireContains(t, out, "Status")
	requireContains(t, out, "pending")
	lines := strings.Split(out, "\n")
	var countLine string
	for _, line := range lines {
		if strings.Contains(line, "pending") {
			countLine = line
		}
	}
	if countLine == "" {
		t.Fatalf("expected a row for pending, got %q", out)
	}
	// Right alignment puts padding before the number, not after.
	if !strings.Contains(countLine, " 3 ") || strings.Contains(countLine, "3  ") {
		t.Fatalf("expected right-aligned count column, got %q", countLine)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}); out != "" {
		t.Fatalf("expected empty output without headers, got %q", out)
	}
}
