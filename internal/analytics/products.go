package analytics

import (
	"sort"
	"strings"
	"unicode"
)

// ProductCount is one entry of the purchases-by-product ranking.
type ProductCount struct {
	ProductID string `json:"productId"`
	Label     string `json:"label"`
	Count     int    `json:"count"`
}

// RankProducts counts paid purchases per product id and returns them in
// descending order, ties keeping first-seen order. Purchases without a
// product id are grouped under "unknown".
func RankProducts(purchases []PurchaseRecord) []ProductCount {
	counts := make(map[string]int)
	var order []string
	for _, purchase := range purchases {
		if purchase.IsTrial {
			continue
		}
		id := purchase.ProductID
		if id == "" {
			id = "unknown"
		}
		if _, seen := counts[id]; !seen {
			order = append(order, id)
		}
		counts[id]++
	}

	ranked := make([]ProductCount, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, ProductCount{
			ProductID: id,
			Label:     ProductLabel(id),
			Count:     counts[id],
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// ProductLabel turns a store product id like "pro-monthly_v2" into a display
// label ("Pro Monthly V2"): the id is split on '-' and '_' and each part gets
// its first rune upper-cased.
func ProductLabel(productID string) string {
	parts := strings.FieldsFunc(productID, func(r rune) bool {
		return r == '-' || r == '_'
	})
	if len(parts) == 0 {
		return "Unknown"
	}
	for i, part := range parts {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
