package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
	domainConfig "github.com/verdant-lab/pythia/pkg/domain/model/config"
)

// Profile holds CLI flags for the brand profile the assistant speaks with
type Profile struct {
	name string
	path string
}

// Flags returns CLI flags for brand profile configuration
func (x *Profile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bot-name",
			Usage:       "Brand name the assistant introduces itself with",
			Category:    "Brand",
			Sources:     cli.EnvVars("PYTHIA_BOT_NAME"),
			Destination: &x.name,
		},
		&cli.StringFlag{
			Name:        "bot-profile",
			Usage:       "Path to a TOML brand profile",
			Category:    "Brand",
			Sources:     cli.EnvVars("PYTHIA_BOT_PROFILE"),
			Destination: &x.path,
		},
	}
}

// profileFile is the TOML representation of a brand profile. Every field is
// optional; anything left out falls back to the defaults derived from the
// brand name.
type profileFile struct {
	Name          string   `toml:"name"`
	ProductLine   string   `toml:"product_line"`
	AssistantName string   `toml:"assistant_name"`
	Topics        []string `toml:"topics"`
	WelcomeNL     string   `toml:"welcome_nl"`
	WelcomeEN     string   `toml:"welcome_en"`
	SupportHeader string   `toml:"support_header"`
	PersonalityNL string   `toml:"personality_nl"`
	PersonalityEN string   `toml:"personality_en"`
	UseEmojis     *bool    `toml:"use_emojis"`
}

// Configure loads the brand profile. Without a TOML path the built-in
// profile for the configured name is used.
func (x *Profile) Configure() (*domainConfig.Profile, error) {
	if x.path == "" {
		return domainConfig.DefaultProfile(x.name), nil
	}
	return LoadProfile(x.path, x.name)
}

// LoadProfile reads a TOML brand profile, filling omitted fields from the
// defaults for the profile's name. The fallback name applies when the file
// does not name the brand either.
func LoadProfile(path, fallbackName string) (*domainConfig.Profile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "brand profile not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read brand profile", goerr.V(ConfigPathKey, path))
	}

	var file profileFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse brand profile",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	name := file.Name
	if name == "" {
		name = fallbackName
	}

	profile := domainConfig.DefaultProfile(name)
	if file.ProductLine != "" {
		profile.ProductLine = file.ProductLine
	}
	if file.AssistantName != "" {
		profile.AssistantName = file.AssistantName
	}
	if len(file.Topics) > 0 {
		profile.Topics = file.Topics
	}
	if file.WelcomeNL != "" {
		profile.WelcomeNL = file.WelcomeNL
	}
	if file.WelcomeEN != "" {
		profile.WelcomeEN = file.WelcomeEN
	}
	if file.SupportHeader != "" {
		profile.SupportHeader = file.SupportHeader
	}
	if file.PersonalityNL != "" {
		profile.PersonalityNL = file.PersonalityNL
	}
	if file.PersonalityEN != "" {
		profile.PersonalityEN = file.PersonalityEN
	}
	if file.UseEmojis != nil {
		profile.UseEmojis = *file.UseEmojis
	}

	return profile, nil
}

func (x Profile) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", x.name),
		slog.String("path", x.path),
	)
}
