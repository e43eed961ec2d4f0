package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/verdant-lab/pythia/pkg/cli/config"
)

func TestRepository_Configure(t *testing.T) {
	t.Run("memory backend needs no further configuration", func(t *testing.T) {
		cfg := config.NewRepositoryForTest("memory", "", "", "")
		repo, err := cfg.Configure(t.Context(), 1536)
		gt.NoError(t, err).Required()
		gt.Value(t, repo).NotNil()
		gt.NoError(t, repo.Close())
	})

	t.Run("firestore requires a project ID", func(t *testing.T) {
		cfg := config.NewRepositoryForTest("firestore", "", "", "")
		_, err := cfg.Configure(t.Context(), 1536)
		gt.Error(t, err)
	})

	t.Run("rejects unknown backend", func(t *testing.T) {
		cfg := config.NewRepositoryForTest("cabinet", "", "", "")
		_, err := cfg.Configure(t.Context(), 1536)
		gt.Error(t, err)
	})

	t.Run("returns flags", func(t *testing.T) {
		cfg := config.NewRepositoryForTest("", "", "", "")
		gt.Array(t, cfg.Flags()).Length(4)
	})
}
