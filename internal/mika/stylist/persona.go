package stylist

import "github.com/fermoza/mika-go/internal/mika/config"

// Persona carries the brand voice baked into prompts and fallback text.
type Persona struct {
	Name     string
	Brand    string
	Region   string
	Currency string
	// LocalNotes are appended to the preamble verbatim, one per line.
	LocalNotes []string
}

// DefaultPersona returns the Fermoza stylist persona.
func DefaultPersona() Persona {
	return Persona{
		Name:     "Mika",
		Brand:    "Fermoza",
		Region:   "Philippines",
		Currency: "₱",
		LocalNotes: []string{
			"Consider Filipino context (humid/rainy weather, commute, travel, office, church, party).",
			`If "Baguio"/cold → suggest closed shoes/layers.`,
		},
	}
}

// PersonaFromConfig overlays the configured names on the default persona.
func PersonaFromConfig(cfg config.StylistConfig) Persona {
	p := DefaultPersona()
	if cfg.Name != "" {
		p.Name = cfg.Name
	}
	if cfg.Brand != "" {
		p.Brand = cfg.Brand
	}
	if cfg.Region != "" {
		p.Region = cfg.Region
	}
	if cfg.Currency != "" {
		p.Currency = cfg.Currency
	}
	return p
}
