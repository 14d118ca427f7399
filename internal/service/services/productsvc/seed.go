package productsvc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corray333/backend-labs/shop/internal/service/models/product"
)

// SeedProducts is the starter catalog.
var SeedProducts = []product.Product{
	{Name: "Noodle Nova", Price: 20000},
	{Name: "QuickBite Bliss", Price: 17000},
	{Name: "Flavor Flash", Price: 12000},
	{Name: "Swift Eats", Price: 18000},
	{Name: "Snap Snacks", Price: 10000},
	{Name: "BiteBurst Bites", Price: 22000},
	{Name: "Taste Twirl", Price: 15000},
	{Name: "Speedy Munch", Price: 13000},
	{Name: "Crunchy Delight", Price: 19000},
	{Name: "Snacky Surge", Price: 16000},
}

// Seed inserts the starter catalog in one transaction when no products exist.
// It returns the number of inserted products.
func (s *ProductService) Seed(ctx context.Context) (int, error) {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to rollback transaction", "error", err)
		}
	}()

	count, err := work.ProductRepository().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		slog.Info("Products already present, skipping seed", "count", count)

		return 0, nil
	}

	now := s.now()
	for _, p := range SeedProducts {
		p.CreatedAt = now
		p.UpdatedAt = now
		if _, err := work.ProductRepository().Insert(ctx, p); err != nil {
			return 0, fmt.Errorf("failed to insert product %q: %w", p.Name, err)
		}
	}

	if err := work.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit seed: %w", err)
	}

	slog.Info("Products seeded", "count", len(SeedProducts))

	return len(SeedProducts), nil
}
