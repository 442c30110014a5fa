package chunking

import (
	"math"
	"testing"
)

func defaultOptions() Options {
	return Options{
		Enabled:     true,
		MaxMB:       25,
		SafetyMB:    2,
		BitrateKbps: 128,
		MinChunkSec: 30,
		SplitTags:   true,
	}
}

func TestChunkSecondsFormula(t *testing.T) {
	opts := defaultOptions()

	// target = 23 MiB = 24117248 bytes; bytes/sec = 128000/8 = 16000.
	if got := opts.TargetBytes(); got != 24117248 {
		t.Fatalf("TargetBytes = %d, want 24117248", got)
	}
	if got := opts.BytesPerSecond(); got != 16000 {
		t.Fatalf("BytesPerSecond = %v, want 16000", got)
	}
	if got := opts.ChunkSeconds(); got != 1507 {
		t.Fatalf("ChunkSeconds = %d, want 1507", got)
	}
}

func TestChunkSecondsClampsToMinimum(t *testing.T) {
	opts := defaultOptions()
	opts.BitrateKbps = 18000 // floor(budget/bps) would be ~10s
	if got := opts.ChunkSeconds(); got != opts.MinChunkSec {
		t.Fatalf("ChunkSeconds = %d, want clamp to %d", got, opts.MinChunkSec)
	}
}

func TestClampToLimit(t *testing.T) {
	opts := defaultOptions()

	tighter := opts.ClampToLimit(10 * 1_048_576)
	if tighter.MaxMB != 10 {
		t.Fatalf("MaxMB = %v, want 10 after clamping to a tighter limit", tighter.MaxMB)
	}

	looser := opts.ClampToLimit(100 * 1_048_576)
	if looser.MaxMB != opts.MaxMB {
		t.Fatalf("MaxMB = %v, want %v when the limit is looser", looser.MaxMB, opts.MaxMB)
	}

	unlimited := opts.ClampToLimit(0)
	if unlimited.MaxMB != opts.MaxMB {
		t.Fatalf("MaxMB = %v, want %v for an unlimited provider", unlimited.MaxMB, opts.MaxMB)
	}
}

func TestNeedsSplitBoundary(t *testing.T) {
	opts := defaultOptions()
	budget := opts.BudgetBytes()

	if opts.NeedsSplit(budget) {
		t.Fatal("payload exactly at budget should not split")
	}
	if !opts.NeedsSplit(budget + 1) {
		t.Fatal("payload over budget should split")
	}

	opts.Enabled = false
	if opts.NeedsSplit(budget * 10) {
		t.Fatal("disabled chunking should never split")
	}
}

func TestPlanUnderBudgetSingleChunk(t *testing.T) {
	opts := defaultOptions()
	chunks := opts.Plan(1024, 600)
	if len(chunks) != 1 {
		t.Fatalf("expected single chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 1 || chunks[0].StartSec != 0 || chunks[0].EndSec != 600 {
		t.Fatalf("unexpected chunk %+v", chunks[0])
	}
}

func TestPlanSlicesOversizedAudio(t *testing.T) {
	opts := defaultOptions()
	opts.BitrateKbps = 18000 // clamps chunk duration to 30s
	size := opts.BudgetBytes() + 1

	chunks := opts.Plan(size, 100)
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks for 100s at 30s step, got %d", len(chunks))
	}
	wantStarts := []float64{0, 30, 60, 90}
	for i, chunk := range chunks {
		if chunk.Index != i+1 {
			t.Fatalf("chunk %d has index %d", i, chunk.Index)
		}
		if chunk.StartSec != wantStarts[i] {
			t.Fatalf("chunk %d starts at %v, want %v", i, chunk.StartSec, wantStarts[i])
		}
	}
	if last := chunks[len(chunks)-1]; last.EndSec != 100 {
		t.Fatalf("final chunk ends at %v, want 100", last.EndSec)
	}
	if got := chunks[len(chunks)-1].DurationSec(); math.Abs(got-10) > 1e-9 {
		t.Fatalf("final chunk duration %v, want 10", got)
	}
}

func TestPlanUnknownDurationFallsBackToSingleChunk(t *testing.T) {
	opts := defaultOptions()
	chunks := opts.Plan(opts.BudgetBytes()*2, 0)
	if len(chunks) != 1 {
		t.Fatalf("expected single chunk for unknown duration, got %d", len(chunks))
	}
}

func TestPlanStepCoveringWholeDuration(t *testing.T) {
	opts := defaultOptions()
	// 1507s step over a 600s file: nothing to slice.
	chunks := opts.Plan(opts.BudgetBytes()+1, 600)
	if len(chunks) != 1 || chunks[0].EndSec != 600 {
		t.Fatalf("expected whole-file chunk, got %+v", chunks)
	}
}
