package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductTier_Valid(t *testing.T) {
	assert.True(t, TierBasic.Valid())
	assert.True(t, TierPremium.Valid())
	assert.True(t, TierAccess.Valid())
	assert.True(t, TierBundle.Valid())

	assert.False(t, ProductTier("gold").Valid())
}

func TestProductTier_Premium(t *testing.T) {
	assert.False(t, TierBasic.Premium())
	assert.False(t, TierAccess.Premium())

	assert.True(t, TierPremium.Premium())
	assert.True(t, TierBundle.Premium())
}

func TestCatalog(t *testing.T) {
	catalog := Catalog()

	require.Len(t, catalog, 4)

	tests := []struct {
		id    string
		price float64
		tier  ProductTier
	}{
		{"formation_basic", 97.0, TierBasic},
		{"formation_premium", 297.0, TierPremium},
		{"diagnostic_access", 47.0, TierAccess},
		{"full_bundle", 397.0, TierBundle},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			product, ok := catalog[tt.id]
			require.True(t, ok)

			assert.Equal(t, tt.id, product.ID)
			assert.Equal(t, tt.price, product.Price)
			assert.Equal(t, tt.tier, product.Tier)
			assert.NotEmpty(t, product.Name)
			assert.NotEmpty(t, product.Features)
		})
	}
}

func TestCatalog_ReturnsFreshMap(t *testing.T) {
	first := Catalog()
	first["formation_basic"] = Product{ID: "tampered"}

	second := Catalog()
	assert.Equal(t, "formation_basic", second["formation_basic"].ID)
}
