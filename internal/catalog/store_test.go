package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"vignette/internal/catalog"
	"vignette/internal/placement"
	"vignette/internal/services"
)

func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleProducts() []placement.Product {
	return []placement.Product{
		{
			ID:          "p1",
			Name:        "travel mug",
			Brand:       "Northway",
			Description: "Insulated steel mug.",
			ImageURL:    "https://example.test/mug.jpg",
			Targeting: placement.Targeting{
				Demographics: []string{"25-40"},
				Interests:    []string{"outdoors"},
				Semantic:     "quiet mornings",
			},
		},
		{ID: "p2", Name: "field jacket", Brand: "Aldercrest"},
	}
}

func TestReplaceAndListProducts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.ReplaceProducts(ctx, sampleProducts()); err != nil {
		t.Fatalf("ReplaceProducts failed: %v", err)
	}

	products, err := store.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	// Ordered by brand then name.
	if products[0].ID != "p2" || products[1].ID != "p1" {
		t.Fatalf("unexpected order: %s, %s", products[0].ID, products[1].ID)
	}

	if err := store.ReplaceProducts(ctx, []placement.Product{{ID: "p3", Name: "lantern", Brand: "Aldercrest"}}); err != nil {
		t.Fatalf("second ReplaceProducts failed: %v", err)
	}
	products, err = store.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p3" {
		t.Fatalf("replace should clear the old catalog, got %v", products)
	}
}

func TestGetProductRoundTripsTargeting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.ReplaceProducts(ctx, sampleProducts()); err != nil {
		t.Fatalf("ReplaceProducts failed: %v", err)
	}

	product, err := store.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if product.Name != "travel mug" || product.Brand != "Northway" {
		t.Fatalf("unexpected product %+v", product)
	}
	if product.Targeting.Semantic != "quiet mornings" {
		t.Fatalf("targeting not round-tripped: %+v", product.Targeting)
	}
	if len(product.Targeting.Demographics) != 1 || product.Targeting.Demographics[0] != "25-40" {
		t.Fatalf("unexpected demographics %v", product.Targeting.Demographics)
	}
}

func TestGetProductMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetProduct(context.Background(), "absent")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertProduct(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	product := placement.Product{ID: "p1", Name: "mug", Brand: "Northway"}
	if err := store.UpsertProduct(ctx, product); err != nil {
		t.Fatalf("UpsertProduct failed: %v", err)
	}

	product.Name = "travel mug"
	if err := store.UpsertProduct(ctx, product); err != nil {
		t.Fatalf("second UpsertProduct failed: %v", err)
	}

	got, err := store.GetProduct(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if got.Name != "travel mug" {
		t.Fatalf("upsert did not update, got %q", got.Name)
	}

	products, err := store.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product after upsert, got %d", len(products))
	}
}

func TestLikedScenes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	scenes := []placement.LikedScene{
		{Description: "Harbor at dawn", Mood: "calm"},
		{Description: "Night market", Mood: "electric", ProductName: "lantern"},
		{Description: "Rooftop garden", Mood: "serene"},
	}
	for _, scene := range scenes {
		if err := store.AddLikedScene(ctx, "session-a", scene); err != nil {
			t.Fatalf("AddLikedScene failed: %v", err)
		}
	}
	if err := store.AddLikedScene(ctx, "session-b", placement.LikedScene{Description: "Other session"}); err != nil {
		t.Fatalf("AddLikedScene failed: %v", err)
	}

	recent, err := store.RecentLikedScenes(ctx, "session-a", 2)
	if err != nil {
		t.Fatalf("RecentLikedScenes failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(recent))
	}
	if recent[0].Description != "Rooftop garden" || recent[1].Description != "Night market" {
		t.Fatalf("expected newest first, got %v", recent)
	}
	if recent[1].ProductName != "lantern" {
		t.Fatalf("product name not round-tripped: %+v", recent[1])
	}

	if _, err := store.RecentLikedScenes(ctx, "session-a", 0); err != nil {
		t.Fatalf("zero limit should not error: %v", err)
	}
}

func TestAddLikedSceneRequiresDescription(t *testing.T) {
	store := newTestStore(t)

	err := store.AddLikedScene(context.Background(), "session-a", placement.LikedScene{Mood: "calm"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	first, err := catalog.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := first.ReplaceProducts(context.Background(), sampleProducts()); err != nil {
		t.Fatalf("ReplaceProducts failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := catalog.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	products, err := second.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected persisted catalog, got %d products", len(products))
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name    string
		product placement.Product
		want    string
	}{
		{"lowercase both", placement.Product{Brand: "northway", Name: "travel mug"}, "Northway Travel Mug"},
		{"preserves mixed case", placement.Product{Brand: "deVere", Name: "NightOwl"}, "deVere NightOwl"},
		{"brand only", placement.Product{Brand: "northway"}, "Northway"},
		{"name only", placement.Product{Name: "lantern"}, "Lantern"},
		{"empty", placement.Product{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := catalog.DisplayName(tc.product); got != tc.want {
				t.Fatalf("DisplayName = %q, want %q", got, tc.want)
			}
		})
	}
}
