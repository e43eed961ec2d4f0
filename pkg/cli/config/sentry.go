package config

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/verdant-lab/pythia/pkg/utils/logging"
)

// Sentry holds CLI flags for error reporting
type Sentry struct {
	dsn         string
	environment string
}

// Flags returns CLI flags for Sentry configuration
func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN (error reporting disabled when empty)",
			Category:    "Observability",
			Sources:     cli.EnvVars("PYTHIA_SENTRY_DSN", "SENTRY_DSN"),
			Destination: &x.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Environment tag attached to Sentry events",
			Category:    "Observability",
			Value:       "production",
			Sources:     cli.EnvVars("PYTHIA_SENTRY_ENV"),
			Destination: &x.environment,
		},
	}
}

// IsConfigured checks if error reporting is enabled
func (x *Sentry) IsConfigured() bool {
	return x.dsn != ""
}

// Configure initializes Sentry when a DSN is set. The returned closer flushes
// buffered events; call it on shutdown.
func (x *Sentry) Configure(release string) (func(), error) {
	if x.dsn == "" {
		return func() {}, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         x.dsn,
		Environment: x.environment,
		Release:     release,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize sentry")
	}

	logging.Default().Info("Sentry error reporting enabled",
		"environment", x.environment,
		"release", release,
	)

	return func() {
		sentry.Flush(2 * time.Second)
	}, nil
}

func (x Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("dsn.len", len(x.dsn)),
		slog.String("environment", x.environment),
	)
}
