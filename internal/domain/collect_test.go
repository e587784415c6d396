package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectProductIDs(t *testing.T) {
	payload := []byte(`{
		"id": 1,
		"name": "Frutas",
		"categories": [
			{
				"id": 11,
				"products": [
					{"id": 100, "display_name": "Manzana"},
					{"id": "101", "display_name": "Pera"}
				]
			},
			{
				"id": 12,
				"categories": [
					{"id": 121, "products": [{"id": 100}, {"id": 102}]}
				]
			}
		]
	}`)

	ids := CollectProductIDs(payload)
	require.Equal(t, []int{100, 101, 102}, SortedIDs(ids))
}

func TestCollectProductIDsDefensive(t *testing.T) {
	cases := map[string]string{
		"not json":           `{{`,
		"products not list":  `{"products": {"id": 5}}`,
		"product not object": `{"products": [42, "x", null]}`,
		"id not numeric":     `{"products": [{"id": "abc"}, {"id": 1.5}, {"id": null}]}`,
		"no products":        `{"id": 3, "name": "Bebidas"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			require.Empty(t, CollectProductIDs([]byte(payload)))
		})
	}
}

func TestParseForest(t *testing.T) {
	raw := []byte(`{
		"count": 2,
		"results": [
			{"id": 1, "name": "Frutas", "categories": [{"id": 11, "name": "Fruta fresca"}]},
			{"id": 2, "name": "Bebidas"}
		]
	}`)

	forest, err := ParseForest(raw)
	require.NoError(t, err)
	require.Len(t, forest, 2)
	require.Equal(t, 1, forest[0].ID)
	require.Equal(t, "Frutas", forest[0].Name)
	require.Len(t, forest[0].Subcategories, 1)
	require.Equal(t, 11, forest[0].Subcategories[0].ID)
	require.Empty(t, forest[1].Subcategories)
}

func TestParseForestStringIDs(t *testing.T) {
	raw := []byte(`{"results": [{"id": "7", "name": "Congelados"}]}`)

	forest, err := ParseForest(raw)
	require.NoError(t, err)
	require.Equal(t, 7, forest[0].ID)
}

func TestParseForestDuplicateID(t *testing.T) {
	raw := []byte(`{"results": [
		{"id": 1, "name": "A"},
		{"id": 2, "name": "B", "categories": [{"id": 1, "name": "dup"}]}
	]}`)

	_, err := ParseForest(raw)
	require.ErrorContains(t, err, "duplicate category id 1")
}

func TestParseForestMissingResults(t *testing.T) {
	_, err := ParseForest([]byte(`{"count": 0}`))
	require.ErrorContains(t, err, "missing 'results'")
}
