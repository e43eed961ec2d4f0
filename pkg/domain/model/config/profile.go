package config

import (
	"fmt"

	"github.com/verdant-lab/pythia/pkg/domain/types"
)

// Profile holds the brand identity the assistant speaks with. It is loaded
// from a TOML file so the same engine can serve different brands without
// code changes.
type Profile struct {
	Name          string // brand name, e.g. "GroundCoverGroup"
	ProductLine   string
	AssistantName string
	Topics        []string // topics the assistant considers in scope
	WelcomeNL     string
	WelcomeEN     string
	SupportHeader string
	PersonalityNL string
	PersonalityEN string
	UseEmojis     bool
}

// DefaultProfile returns the built-in brand profile, interpolating the
// given name into the derived fields the same way a minimal TOML file would
func DefaultProfile(name string) *Profile {
	if name == "" {
		name = "GroundCoverGroup"
	}
	return &Profile{
		Name:          name,
		ProductLine:   name,
		AssistantName: name,
		Topics:        []string{"tuinieren", name, "producten", "gardening", "products"},
		WelcomeNL:     fmt.Sprintf("Hallo! Ik ben de %s assistent. Hoe kan ik je helpen?", name),
		WelcomeEN:     fmt.Sprintf("Hello! I'm the %s assistant. How can I help you?", name),
		SupportHeader: fmt.Sprintf("%s Support", name),
		PersonalityNL: "Je bent een vriendelijke, informele klantenservice-medewerker van " + name + ". " +
			"Je beantwoordt vragen over onze producten en diensten alsof je een deskundige collega in de winkel bent: warm, professioneel, kort en helder. " +
			"Je spreekt altijd namens wij / ons en controleert zorgvuldig voordat je antwoordt. " +
			"Als je iets niet zeker weet, ben je daar eerlijk over en bied je aan dat een collega kan helpen.",
		PersonalityEN: "You are a friendly, informal customer service representative for " + name + ". " +
			"You answer questions about our products and services as if you were an expert colleague in the shop: warm, professional, concise and clear. " +
			"You always speak on behalf of us and check carefully before answering. " +
			"If you are unsure about something, you are honest about it and offer to have a colleague assist.",
		UseEmojis: true,
	}
}

// Personality returns the persona prompt for the given language
func (p *Profile) Personality(lang types.Language) string {
	if lang.Normalize() == types.LanguageEnglish {
		return p.PersonalityEN
	}
	return p.PersonalityNL
}

// Welcome returns the welcome message for the given language
func (p *Profile) Welcome(lang types.Language) string {
	if lang.Normalize() == types.LanguageEnglish {
		return p.WelcomeEN
	}
	return p.WelcomeNL
}
