package inventory

import (
	"sort"
	"strings"

	"github.com/lavilla/almacen/internal/domain/models"
)

// AllSuppliers is the filter value that disables supplier filtering.
const AllSuppliers = "all"

// IsAllSuppliers reports whether supplier is the "no filter" sentinel.
func IsAllSuppliers(supplier string) bool {
	supplier = strings.TrimSpace(supplier)
	return supplier == "" || strings.EqualFold(supplier, AllSuppliers)
}

// MatchesSupplier reports whether p passes the supplier filter.
func MatchesSupplier(p models.Product, supplier string) bool {
	return IsAllSuppliers(supplier) || p.Supplier == supplier
}

// MatchesName reports whether the name of p contains query, ignoring case.
// A row without a name only matches the empty query.
func MatchesName(p models.Product, query string) bool {
	if query == "" {
		return true
	}
	if p.Name == "" {
		return false
	}
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(query))
}

// FilterBySupplier keeps the rows whose supplier matches exactly.
func FilterBySupplier(products []models.Product, supplier string) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if MatchesSupplier(p, supplier) {
			out = append(out, p)
		}
	}
	return out
}

// SearchByName keeps the rows whose name contains query, ignoring case.
func SearchByName(products []models.Product, query string) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if MatchesName(p, query) {
			out = append(out, p)
		}
	}
	return out
}

// Suppliers returns the distinct non-empty suppliers sorted ascending.
func Suppliers(products []models.Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0)
	for _, p := range products {
		if p.Supplier == "" {
			continue
		}
		if _, ok := seen[p.Supplier]; ok {
			continue
		}
		seen[p.Supplier] = struct{}{}
		out = append(out, p.Supplier)
	}
	sort.Strings(out)
	return out
}
