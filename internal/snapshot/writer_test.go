package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mercadona/snapshot/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestWriterLayout(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	forest := []domain.Category{
		{ID: 1, Name: "Frutas", Subcategories: []domain.Category{{ID: 11, Name: "Fruta fresca", Subcategories: []domain.Category{}}}},
	}
	require.NoError(t, w.WriteForest(forest))
	require.NoError(t, w.WriteProductIDs([]int{100, 101}))
	require.NoError(t, w.WriteCategory(1, json.RawMessage(`{"id":1}`)))
	require.NoError(t, w.WriteProduct(100, json.RawMessage(`{"id":100}`)))

	for _, name := range []string{
		"categories.json",
		"product_ids.json",
		filepath.Join("categories", "1.json"),
		filepath.Join("products", "100.json"),
	} {
		content, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		require.True(t, json.Valid(content), "%s must hold valid JSON", name)
	}

	ids, err := os.ReadFile(filepath.Join(dir, "product_ids.json"))
	require.NoError(t, err)
	require.Equal(t, "[\n  100,\n  101\n]\n", string(ids))
}

func TestWriterPreservesKeyOrder(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	// Keys deliberately not in lexical order: the body must pass through
	// verbatim, only re-indented.
	raw := json.RawMessage(`{"zeta":1,"alpha":{"b":2,"a":3}}`)
	require.NoError(t, w.WriteProduct(5, raw))

	content, err := os.ReadFile(filepath.Join(dir, "products", "5.json"))
	require.NoError(t, err)
	require.Equal(t, "{\n  \"zeta\": 1,\n  \"alpha\": {\n    \"b\": 2,\n    \"a\": 3\n  }\n}\n", string(content))
}

func TestWriterAtomic(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	require.NoError(t, w.WriteProduct(1, json.RawMessage(`{"id":1}`)))

	// No temp file may survive a completed write.
	entries, err := os.ReadDir(filepath.Join(dir, "products"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "1.json", entries[0].Name())
}

func TestWriterIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, true)

	require.NoError(t, w.WriteProductIDs([]int{100, 101}))
	first, err := os.ReadFile(filepath.Join(dir, "product_ids.json"))
	require.NoError(t, err)

	require.NoError(t, w.WriteProductIDs([]int{100, 101}))
	second, err := os.ReadFile(filepath.Join(dir, "product_ids.json"))
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestWriterSkipUnchanged(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, true)
	path := filepath.Join(dir, "products", "9.json")

	require.NoError(t, w.WriteProduct(9, json.RawMessage(`{"id":9}`)))
	before, err := os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteProduct(9, json.RawMessage(`{"id":9}`)))
	after, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, before.ModTime(), after.ModTime(), "unchanged content must not be rewritten")

	require.NoError(t, w.WriteProduct(9, json.RawMessage(`{"id":9,"price":"1.50"}`)))
	changed, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(changed), "price")
}

func TestWriterMalformedRaw(t *testing.T) {
	w := NewWriter(t.TempDir(), false)
	require.Error(t, w.WriteProduct(1, json.RawMessage(`{"id":`)))
}
