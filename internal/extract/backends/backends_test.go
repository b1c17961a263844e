package backends_test

import (
	"testing"
	"time"

	"github.com/riskdocs/riskdocs/internal/config"
	"github.com/riskdocs/riskdocs/internal/extract/backends"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtractor_KnownProviders(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic", "ollama"} {
		t.Run(provider, func(t *testing.T) {
			ex, err := backends.NewExtractor(config.ExtractorConfig{
				Provider:         provider,
				InferenceTimeout: time.Minute,
			})
			require.NoError(t, err)
			assert.Equal(t, provider, ex.Name())
		})
	}
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	_, err := backends.NewExtractor(config.ExtractorConfig{Provider: "bedrock"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extraction provider")
	assert.Contains(t, err.Error(), "bedrock")
}
