package stage_test

import (
	"errors"
	"testing"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/chunking"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/stage"
)

func TestChunkPlanRoundTrip(t *testing.T) {
	plan := []chunking.Chunk{
		{Index: 1, StartSec: 0, EndSec: 30},
		{Index: 2, StartSec: 30, EndSec: 45.5},
	}
	raw, err := stage.EncodeChunkPlan(plan)
	if err != nil {
		t.Fatalf("EncodeChunkPlan failed: %v", err)
	}
	decoded, err := stage.ParseChunkPlan(raw)
	if err != nil {
		t.Fatalf("ParseChunkPlan failed: %v", err)
	}
	if len(decoded) != 2 || decoded[1].EndSec != 45.5 {
		t.Fatalf("unexpected decoded plan: %#v", decoded)
	}
}

func TestParseChunkPlanRejectsInvalid(t *testing.T) {
	if _, err := stage.ParseChunkPlan(""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty plan, got %v", err)
	}
	if _, err := stage.ParseChunkPlan("{not json"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for invalid plan, got %v", err)
	}
}
