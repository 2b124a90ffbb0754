package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"pos/internal/domain"
)

// Catalog чистые операции над снимком товаров: поиск, фильтр по категории,
// сортировка с учётом закреплённых товаров. Снимок не изменяется.
type Catalog struct {
	coll *collate.Collator
}

func New() *Catalog {
	return &Catalog{coll: collate.New(language.English, collate.IgnoreCase)}
}

// Filter оставляет товары, у которых имя или SKU содержит search
// (без учёта регистра) и категория совпадает с category, если та задана
func (c *Catalog) Filter(products []domain.Product, search, category string) []domain.Product {
	term := strings.ToLower(search)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !matchesSearch(p, term) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesSearch(p domain.Product, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.SKU), term)
}

// Sort возвращает копию: сначала закреплённые товары, внутри каждой части —
// по имени с локале-зависимым сравнением; сортировка стабильная
func (c *Catalog) Sort(products []domain.Product, pinned map[int64]bool) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := pinned[out[i].ID], pinned[out[j].ID]
		if pi != pj {
			return pi
		}
		return c.coll.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

// Categories множество непустых категорий в порядке первого появления
func (c *Catalog) Categories(products []domain.Product) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}
