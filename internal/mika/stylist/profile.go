package stylist

import (
	"strings"

	"github.com/fermoza/mika-go/internal/mika/types"
)

// SummarizeProfile renders the present profile attributes as "key:value" pairs
// joined by ", ". The field order is fixed; an empty profile yields "".
func SummarizeProfile(p types.ProfileAttributes) string {
	fields := []struct {
		key   string
		value string
	}{
		{"gender", p.Gender},
		{"occasion", p.Occasion},
		{"color", p.ColorPref},
		{"budget", p.Budget},
		{"bodyType", p.BodyType},
		{"undertone", p.Undertone},
		{"skinTone", p.SkinTone},
		{"size", p.Size},
		{"shoeSize", p.ShoeSize},
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if v := strings.TrimSpace(f.value); v != "" {
			parts = append(parts, f.key+":"+v)
		}
	}
	return strings.Join(parts, ", ")
}
