// Package backends constructs the configured extraction backend. It is
// the only package that imports all vendor subpackages.
package backends

import (
	"fmt"

	"github.com/riskdocs/riskdocs/internal/config"
	"github.com/riskdocs/riskdocs/internal/extract"
	"github.com/riskdocs/riskdocs/internal/extract/anthropic"
	"github.com/riskdocs/riskdocs/internal/extract/ollama"
	"github.com/riskdocs/riskdocs/internal/extract/openai"
	"github.com/riskdocs/riskdocs/pkg/models"
)

// NewExtractor constructs the extractor named by config. Called once at
// server startup.
func NewExtractor(cfg config.ExtractorConfig) (models.Extractor, error) {
	var completer extract.Completer
	switch cfg.Provider {
	case "openai":
		completer = openai.NewProvider(cfg.OpenAI, cfg.InferenceTimeout)
	case "anthropic":
		completer = anthropic.NewProvider(cfg.Anthropic, cfg.InferenceTimeout)
	case "ollama":
		completer = ollama.NewProvider(cfg.Ollama, cfg.InferenceTimeout)
	default:
		return nil, fmt.Errorf("unknown extraction provider %q: must be one of openai, anthropic, ollama", cfg.Provider)
	}
	return extract.NewExtractor(completer, cfg.InferenceTimeout), nil
}
