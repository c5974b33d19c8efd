package interpret

import (
	"context"

	"github.com/huythanhnguyen/ddv/internal/domain/intent"
)

// Extractor is the optional AI-assisted extraction pass. Implementations
// must return domain.ErrExtractorUnavailable-wrapped errors on transport or
// response-format failures.
type Extractor interface {
	Extract(ctx context.Context, text string) (*intent.Extraction, error)
}
