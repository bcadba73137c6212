package catalog

import (
	"context"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// InventoryStatusFor buckets a stock quantity: 0 is out of stock, 1 through 4
// is low stock, 5 and above is in stock.
func InventoryStatusFor(quantity int) InventoryStatus {
	switch {
	case quantity <= 0:
		return InventoryOutOfStock
	case quantity < LowStockThreshold:
		return InventoryLowStock
	default:
		return InventoryInStock
	}
}

// InventoryStatus returns the stock bucket of the product.
func (p *Product) InventoryStatus() InventoryStatus {
	return InventoryStatusFor(p.Quantity)
}

// ListProducts reads every active product and then runs the filter stages in
// order: category, price range, name search, sort. Each stage works on the
// output of the previous one.
func (s *service) ListProducts(ctx context.Context, filters ProductListFilters) ([]*Product, error) {
	products, err := Collect(s.repo.ScanProducts(ctx, ProductQuery{Scope: ScopeActive}))
	if err != nil {
		return nil, err
	}

	products = filterProducts(products, ProductQuery{Scope: ScopeActive, CategoryID: filters.CategoryID})
	products = filterProducts(products, ProductQuery{Scope: ScopeActive, MinPrice: filters.MinPrice, MaxPrice: filters.MaxPrice})
	products = filterProducts(products, ProductQuery{Scope: ScopeActive, NameContains: filters.Search})
	sortProducts(products, filters.SortBy, filters.SortOrder)

	return products, nil
}

func filterProducts(products []*Product, q ProductQuery) []*Product {
	out := products[:0]
	for _, p := range products {
		if q.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// sortProducts orders products stably. Names compare under Unicode collation
// and always ascend; prices follow order.
func sortProducts(products []*Product, by SortField, order SortOrder) {
	switch by {
	case SortByPrice:
		sort.SliceStable(products, func(i, j int) bool {
			if order == SortDesc {
				return products[i].Price > products[j].Price
			}
			return products[i].Price < products[j].Price
		})
	default:
		collator := collate.New(language.Und)
		sort.SliceStable(products, func(i, j int) bool {
			return collator.CompareString(products[i].Name, products[j].Name) < 0
		})
	}
}

// sortCategories orders categories by collated name.
func sortCategories(categories []*Category) {
	collator := collate.New(language.Und)
	sort.SliceStable(categories, func(i, j int) bool {
		return collator.CompareString(categories[i].Name, categories[j].Name) < 0
	})
}
