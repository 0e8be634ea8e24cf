package featureset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "customers", all[0].Domain)
	assert.Equal(t, "products", all[1].Domain)
	assert.Equal(t, "regions", all[2].Domain)

	fs, ok := r.Lookup("regions")
	require.True(t, ok)
	assert.Equal(t, "country", fs.IDColumn)
	assert.Len(t, fs.Features, 6)

	_, ok = r.Lookup("suppliers")
	assert.False(t, ok)
}

func TestBuiltinsValidate(t *testing.T) {
	for _, fs := range []FeatureSet{Regions, Customers, Products} {
		assert.NoError(t, fs.Validate(), fs.Domain)
		assert.Contains(t, fs.Query, fs.IDColumn, fs.Domain)
		for _, f := range fs.Features {
			assert.Contains(t, fs.Query, "AS "+f, "%s query should alias %s", fs.Domain, f)
		}
	}
}

func TestColumns(t *testing.T) {
	assert.Equal(t,
		[]string{"product_id", "avg_price", "order_frequency", "avg_quantity_per_order", "unique_customers"},
		Products.Columns())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		fs   FeatureSet
	}{
		{"empty domain", FeatureSet{IDColumn: "id", Features: []string{"a"}}},
		{"empty id", FeatureSet{Domain: "d", Features: []string{"a"}}},
		{"no features", FeatureSet{Domain: "d", IDColumn: "id"}},
		{"duplicate feature", FeatureSet{Domain: "d", IDColumn: "id", Features: []string{"a", "a"}}},
		{"feature shadows id", FeatureSet{Domain: "d", IDColumn: "id", Features: []string{"id"}}},
		{"unknown view", FeatureSet{Domain: "d", IDColumn: "id", Features: []string{"a", "b"}, Views: [][2]string{{"a", "c"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.fs.Validate())
		})
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(Regions, Regions)
	assert.Error(t, err)
}
