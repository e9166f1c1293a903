package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshbasket/internal/db"
	"freshbasket/internal/model"
)

func newProductRepo(t *testing.T, names ...string) ProductRepository {
	t.Helper()
	gormDB, err := db.NewSQLiteMemory(uuid.NewString())
	require.NoError(t, err)
	repo := NewProductRepository(gormDB)

	products := make([]model.Product, 0, len(names))
	for _, n := range names {
		products = append(products, model.Product{Name: n, Price: decimal.NewFromInt(10), Category: model.CategoryFruits})
	}
	require.NoError(t, repo.CreateBatch(context.Background(), products))
	return repo
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "apple", want: "apple"},
		{in: "100%", want: "100!%"},
		{in: "a_b", want: "a!_b"},
		{in: "wow!", want: "wow!!"},
		{in: `back\slash`, want: `back\slash`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeLike(tt.in))
		})
	}
}

func TestProductRepository_SearchByNameLiteral(t *testing.T) {
	ctx := context.Background()
	repo := newProductRepo(t, "100% Juice", "Pick!Me", "snake_fruit", `Back\Slash Bun`, "Plain Bread")

	tests := []struct {
		query string
		want  []string
	}{
		{query: "%", want: []string{"100% Juice"}},
		{query: "_", want: []string{"snake_fruit"}},
		{query: "k!M", want: []string{"Pick!Me"}},
		{query: `\`, want: []string{`Back\Slash Bun`}},
		{query: "bread", want: nil},
		{query: "Bread", want: []string{"Plain Bread"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			found, err := repo.SearchByName(ctx, tt.query)
			require.NoError(t, err)
			var names []string
			for _, p := range found {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}
