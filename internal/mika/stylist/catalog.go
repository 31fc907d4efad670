package stylist

import (
	"fmt"
	"strings"

	"github.com/fermoza/mika-go/internal/mika/types"
)

// MaxCatalogLines bounds how many products are rendered into a prompt.
const MaxCatalogLines = 120

// FormatCatalog renders up to MaxCatalogLines products, in catalog order, as
// "- id | title | <currency><price>" lines joined by newlines.
func FormatCatalog(products []types.Product, currency string) string {
	if len(products) > MaxCatalogLines {
		products = products[:MaxCatalogLines]
	}

	lines := make([]string, 0, len(products))
	for _, p := range products {
		lines = append(lines, fmt.Sprintf("- %s | %s | %s%.2f", p.ID, p.Title, currency, p.Price))
	}
	return strings.Join(lines, "\n")
}

// catalogIDs returns the set of non-empty product ids.
func catalogIDs(products []types.Product) map[string]struct{} {
	ids := make(map[string]struct{}, len(products))
	for _, p := range products {
		if p.ID != "" {
			ids[p.ID] = struct{}{}
		}
	}
	return ids
}

// heroProduct returns the first product carrying an id.
func heroProduct(products []types.Product) (types.Product, bool) {
	for _, p := range products {
		if p.ID != "" {
			return p, true
		}
	}
	return types.Product{}, false
}
