package preflight

import (
	"context"
	"fmt"
	"time"

	"github.com/Aman-CERP/ragcore/internal/embed"
)

// embedProbeTimeout bounds the test embedding.
const embedProbeTimeout = 30 * time.Second

// CheckEmbedder embeds a probe text and compares the vector length with the
// provider's declared dimension. Failures are warnings: only hybrid indexes
// need an embedder.
func (c *Checker) CheckEmbedder(ctx context.Context, embedder embed.Embedder) CheckResult {
	result := CheckResult{
		Name:     "embedder",
		Required: false,
		Details:  fmt.Sprintf("Model: %s", embedder.ModelName()),
	}

	ctx, cancel := context.WithTimeout(ctx, embedProbeTimeout)
	defer cancel()

	start := time.Now()
	vec, err := embedder.Embed(ctx, "preflight probe")
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("embedding failed: %v", err)
		return result
	}
	if len(vec) != embedder.Dimensions() {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("provider returned %d dimensions, declared %d", len(vec), embedder.Dimensions())
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s, %d dimensions (%s)",
		embedder.ModelName(), len(vec), time.Since(start).Round(time.Millisecond))
	return result
}
