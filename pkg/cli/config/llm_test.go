package config_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/verdant-lab/pythia/pkg/cli/config"
)

// mockLLMClient is a minimal gollem client for wiring tests
type mockLLMClient struct{}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func TestLLM_Configure(t *testing.T) {
	t.Run("rejects unknown provider", func(t *testing.T) {
		cfg := config.NewLLMForTest("chatterbox", "", "", 1536)
		_, err := cfg.Configure(t.Context())
		gt.Error(t, err)
	})

	t.Run("openai requires an api key", func(t *testing.T) {
		cfg := config.NewLLMForTest("openai", "", "", 1536)
		_, err := cfg.Configure(t.Context())
		gt.Error(t, err)
	})

	t.Run("claude requires an api key", func(t *testing.T) {
		cfg := config.NewLLMForTest("claude", "", "", 1536)
		_, err := cfg.Configure(t.Context())
		gt.Error(t, err)
	})

	t.Run("gemini requires a project", func(t *testing.T) {
		cfg := config.NewLLMForTest("gemini", "", "", 1536)
		_, err := cfg.Configure(t.Context())
		gt.Error(t, err)
	})

	t.Run("returns flags", func(t *testing.T) {
		cfg := config.NewLLMForTest("openai", "", "", 1536)
		gt.Array(t, cfg.Flags()).Length(9)
	})
}

func TestLLM_ConfigureEmbedder(t *testing.T) {
	cfg := config.NewLLMForTest("openai", "sk-test", "", 768)

	embedder, err := cfg.ConfigureEmbedder(&mockLLMClient{})
	gt.NoError(t, err).Required()
	gt.Value(t, embedder.Dimension()).Equal(768)
}
