package stage

import (
	"encoding/json"
	"fmt"

	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/chunking"
	"github.com/Leshadowx/epicenter-AlvaroRemix/internal/services"
)

// ParseChunkPlan decodes the chunk plan stored on a queue item.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func ParseChunkPlan(raw string) ([]chunking.Chunk, error) {
	if raw == "" {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "parse chunk plan",
			"Chunk plan missing; rerun preparation", nil)
	}
	var chunks []chunking.Chunk
	if err := json.Unmarshal([]byte(raw), &chunks); err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "parse chunk plan",
			"Chunk plan invalid; rerun preparation", err)
	}
	return chunks, nil
}

// EncodeChunkPlan serializes a chunk plan for persistence on a queue item.
func EncodeChunkPlan(chunks []chunking.Chunk) (string, error) {
	data, err := json.Marshal(chunks)
	if err != nil {
		return "", fmt.Errorf("encode chunk plan: %w", err)
	}
	return string(data), nil
}
