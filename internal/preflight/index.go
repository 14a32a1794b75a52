package preflight

import (
	"context"
	"errors"
	"fmt"

	ragerrors "github.com/Aman-CERP/ragcore/internal/errors"
	"github.com/Aman-CERP/ragcore/pkg/indexer"
)

// CheckIndex loads the artifact at location. A missing index is a warning;
// one that exists but cannot be loaded fails the check.
func (c *Checker) CheckIndex(ctx context.Context, location string) CheckResult {
	result := CheckResult{
		Name:     "index",
		Required: true,
		Details:  fmt.Sprintf("Artifact: %s", indexer.ArtifactPath(location)),
	}

	art, err := indexer.Open(ctx, location)
	switch {
	case errors.Is(err, ragerrors.ErrIndexNotFound):
		result.Status = StatusWarn
		result.Message = "no index built yet"
		return result
	case err != nil:
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s index, %d chunks", art.Method, art.Len())
	return result
}
