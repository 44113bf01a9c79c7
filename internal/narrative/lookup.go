package narrative

import (
	"unicode/utf8"

	"github.com/azure/brand-visibility-engine/internal/brands"
	"github.com/azure/brand-visibility-engine/internal/models"
)

// windowBefore returns up to size bytes of text ending at pos, starting on a rune boundary
func windowBefore(text string, pos, size int) string {
	start := pos - size
	if start < 0 {
		start = 0
	}
	for start < pos && !utf8.RuneStart(text[start]) {
		start++
	}
	return text[start:pos]
}

// NearestBrand finds the closest brand mentioned in window. Later positions win;
// on the same position the longer name wins.
func NearestBrand(window string, names []string) (string, bool) {
	var best brands.Occurrence
	found := false
	for _, occ := range brands.FindOccurrences(window, names) {
		if !found || occ.Start > best.Start || (occ.Start == best.Start && len(occ.Brand) > len(best.Brand)) {
			best = occ
			found = true
		}
	}
	return best.Brand, found
}

// resolveRow picks the row a number at pos refers to, falling back to the top-ranked row
func (c *Corrector) resolveRow(text string, pos int) models.BrandBreakdownRow {
	if name, ok := NearestBrand(windowBefore(text, pos, BrandLookupWindow), c.names); ok {
		if row, exists := c.byKey[brands.Key(name)]; exists {
			return row
		}
	}
	return c.rows[0]
}

// providerGuarded reports whether a provider is named shortly before pos
func (c *Corrector) providerGuarded(text string, pos int) bool {
	return len(brands.FindOccurrences(windowBefore(text, pos, ProviderGuardWindow), c.opts.Providers)) > 0
}
