package extract

import (
	"time"

	"github.com/riskdocs/riskdocs/pkg/models"
)

// NewExtractor wraps a vendor backend in the prompt/parse service. The
// backends package picks the Completer from config; keeping construction
// there avoids an import cycle between this package and its vendor
// subpackages.
func NewExtractor(completer Completer, timeout time.Duration) models.Extractor {
	return NewService(completer, timeout)
}
