// Package handlers exposes the expense tracker over JSON HTTP. Handlers own
// the cache and the read-after-write sequencing; the parser and aggregator
// stay pure underneath.
package handlers

import (
	"context"
	"fmt"

	"github.com/dvloznov/family-budget/internal/cache"
	"github.com/dvloznov/family-budget/internal/domain"
	"github.com/dvloznov/family-budget/internal/storage"
)

// catalog is the cached read side shared by the budget, category and parse
// handlers. Writes go straight to the store followed by Invalidate.
type catalog struct {
	store storage.Store
	cache *cache.Cache
}

func (c *catalog) categories(ctx context.Context) ([]domain.Category, error) {
	if v, ok := c.cache.Get(cache.CategoriesKey); ok {
		if cats, ok := v.([]domain.Category); ok {
			return cats, nil
		}
	}

	cats, err := c.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	c.cache.Set(cache.CategoriesKey, cats)
	return cats, nil
}

func (c *catalog) categoryNames(ctx context.Context) ([]string, error) {
	cats, err := c.categories(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cats))
	for _, cat := range cats {
		names = append(names, cat.Name)
	}
	return names, nil
}

func (c *catalog) monthTransactions(ctx context.Context, year, month int) ([]domain.Transaction, error) {
	key := cache.MonthKey(year, month)
	if v, ok := c.cache.Get(key); ok {
		if txs, ok := v.([]domain.Transaction); ok {
			return txs, nil
		}
	}

	txs, err := c.store.ListMonthTransactions(ctx, year, month, "")
	if err != nil {
		return nil, fmt.Errorf("load month transactions: %w", err)
	}
	c.cache.Set(key, txs)
	return txs, nil
}

// invalidate drops all cached reads. Called after every mutating call.
func (c *catalog) invalidate() {
	c.cache.Invalidate()
}
