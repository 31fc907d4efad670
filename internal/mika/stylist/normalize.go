package stylist

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fermoza/mika-go/internal/mika/types"
)

const (
	maxLookTitle  = 80
	maxLookReason = 200
	maxPickReason = 160

	defaultMessage   = "Here are ideas for you."
	defaultLookTitle = "Curated look"
)

// Report describes what the normalizer had to repair.
type Report struct {
	Parsed       bool
	DroppedLooks int
	DroppedPicks int
	FallbackLook bool
	FallbackPick bool
}

// Normalizer turns raw model text into a catalog-consistent StylistResponse.
type Normalizer struct {
	persona Persona
}

// NewNormalizer creates a normalizer whose generic texts name the persona's brand.
func NewNormalizer(persona Persona) *Normalizer {
	return &Normalizer{persona: persona}
}

// Normalize never fails. Every product id in the result belongs to catalog, and a
// catalog with at least one id always yields at least one look and one pick.
func (n *Normalizer) Normalize(raw string, catalog []types.Product) (types.StylistResponse, Report) {
	var report Report

	var doc map[string]any
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		report.Parsed = true
		doc, _ = parsed.(map[string]any)
	} else {
		message := strings.TrimSpace(raw)
		if message == "" {
			message = defaultMessage
		}
		doc = map[string]any{"message": message}
	}

	ids := catalogIDs(catalog)
	resp := types.StylistResponse{
		Message: coerceMessage(doc["message"]),
		Looks:   []types.Look{},
		Picks:   []types.Pick{},
		Beauty:  coerceMap(doc["beauty"]),
		Advice:  coerceMap(doc["advice"]),
	}

	if looks, ok := doc["looks"].([]any); ok {
		for _, entry := range looks {
			look, ok := n.coerceLook(entry, ids)
			if !ok {
				report.DroppedLooks++
				continue
			}
			resp.Looks = append(resp.Looks, look)
		}
	}
	if picks, ok := doc["picks"].([]any); ok {
		for _, entry := range picks {
			pick, ok := n.coercePick(entry, ids)
			if !ok {
				report.DroppedPicks++
				continue
			}
			resp.Picks = append(resp.Picks, pick)
		}
	}

	hero, hasHero := heroProduct(catalog)
	if hasHero && len(resp.Looks) == 0 {
		resp.Looks = append(resp.Looks, n.fallbackLook(hero))
		report.FallbackLook = true
	}
	if hasHero && len(resp.Picks) == 0 {
		resp.Picks = append(resp.Picks, types.Pick{
			ProductID: hero.ID,
			Reason:    fmt.Sprintf("Best match from the current %s catalog for this styling request.", n.persona.Brand),
		})
		report.FallbackPick = true
	}

	if resp.Message == "" {
		resp.Message = defaultMessage
	}

	return resp, report
}

func (n *Normalizer) coerceLook(entry any, ids map[string]struct{}) (types.Look, bool) {
	fields, ok := entry.(map[string]any)
	if !ok {
		return types.Look{}, false
	}
	rawItems, _ := fields["items"].([]any)
	items := make([]string, 0, len(rawItems))
	for _, item := range rawItems {
		id := coerceID(item)
		if _, known := ids[id]; id != "" && known {
			items = append(items, id)
		}
	}
	if len(items) == 0 {
		return types.Look{}, false
	}
	return types.Look{
		Title:  textOr(fields["title"], defaultLookTitle, maxLookTitle),
		Reason: textOr(fields["reason"], fmt.Sprintf("Picked from the available %s catalog.", n.persona.Brand), maxLookReason),
		Items:  items,
	}, true
}

func (n *Normalizer) coercePick(entry any, ids map[string]struct{}) (types.Pick, bool) {
	fields, ok := entry.(map[string]any)
	if !ok {
		return types.Pick{}, false
	}
	id := coerceID(fields["productId"])
	if _, known := ids[id]; id == "" || !known {
		return types.Pick{}, false
	}
	return types.Pick{
		ProductID: id,
		Reason:    textOr(fields["reason"], fmt.Sprintf("A good match from the %s catalog.", n.persona.Brand), maxPickReason),
	}, true
}

func (n *Normalizer) fallbackLook(hero types.Product) types.Look {
	title := defaultLookTitle
	if t := strings.TrimSpace(hero.Title); t != "" {
		title = clamp("Styled with "+t, maxLookTitle)
	}
	return types.Look{
		Title:  title,
		Reason: fmt.Sprintf("Using available %s pieces to match the request as closely as possible.", n.persona.Brand),
		Items:  []string{hero.ID},
	}
}

// coerceID accepts string and numeric ids. Numbers render without exponent or
// trailing zeros, matching how numeric catalog ids are decoded.
func coerceID(v any) string {
	switch id := v.(type) {
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}
	return ""
}

func coerceMessage(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func coerceMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// textOr returns v trimmed and clamped, or def when v is not a non-blank string.
func textOr(v any, def string, limit int) string {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return clamp(s, limit)
}

// clamp cuts s to at most limit code points.
func clamp(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
