package stylist

import (
	"fmt"
	"strings"

	"github.com/fermoza/mika-go/internal/mika/types"
)

const placeholderNone = "(none)"

const responseShape = `{
  "message": "short helpful reply (<= 2 sentences)",
  "looks": [
    {
      "title": "look name",
      "reason": "why it matches",
      "items": ["product-id-1","product-id-2"]
    }
  ],
  "picks": [
    { "productId": "id-here", "reason": "1 short reason" }
  ],
  "beauty": { "colors": ["..."], "makeup": "..." },
  "advice": { "fit": "...", "weather": "..." }
}`

var promptRules = []string{
	"NEVER invent products or prices. Use ONLY items from the CATALOG below.",
	"If there are only bags or few items, still create at least one look using the available items.",
	"ALWAYS give styling and fit advice even if no clothing products are available.",
	"Prefer 2–3 items per look when possible (bag + optional clothing/shoes).",
	"Respect body type, occasion, budget, and colors when provided.",
	"Always return a SINGLE valid JSON object following the schema exactly.",
	"If unsure, still build a useful look + simple guidance based on the catalog.",
}

// Composer renders chat requests into the stylist prompt for one persona.
type Composer struct {
	persona Persona
}

// NewComposer creates a composer for the persona.
func NewComposer(persona Persona) *Composer {
	return &Composer{persona: persona}
}

// SystemInstruction is sent as the system message alongside every prompt.
func (c *Composer) SystemInstruction() string {
	return fmt.Sprintf("You are %s, a structured JSON-only stylist. Always answer with a SINGLE valid JSON object and nothing else.", c.persona.Name)
}

// Compose builds the user prompt. The output depends only on the request and the
// persona.
func (c *Composer) Compose(req types.ChatRequest) string {
	userText := ExtractIntent(req.Utterance, req.Conversation)
	if userText == "" {
		userText = placeholderNone
	}
	profileText := SummarizeProfile(req.Profile)
	if profileText == "" {
		profileText = placeholderNone
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %q, the AI stylist for %s (%s). Speak in a warm, concise Taglish-boutique tone.\n",
		c.persona.Name, c.persona.Brand, c.persona.Region)
	b.WriteString("Prefer bags as the hero item; you may add other store items.")
	for i, note := range c.persona.LocalNotes {
		if i == 0 {
			b.WriteString(" ")
		} else {
			b.WriteString("\n")
		}
		b.WriteString(note)
	}
	b.WriteString("\n\nReturn JSON ONLY with this exact shape:\n\n")
	b.WriteString(responseShape)
	b.WriteString("\n\nRules:\n")
	for _, rule := range promptRules {
		b.WriteString("- ")
		b.WriteString(rule)
		b.WriteString("\n")
	}
	b.WriteString("\nUSER:\n")
	b.WriteString(userText)
	b.WriteString("\n\nPROFILE: ")
	b.WriteString(profileText)
	b.WriteString("\nCATALOG (id | title | price):\n")
	b.WriteString(FormatCatalog(req.Catalog, c.persona.Currency))

	return strings.TrimSpace(b.String())
}
