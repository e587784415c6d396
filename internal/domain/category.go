package domain

import (
	"encoding/json"
	"fmt"
)

// Category is one node of the catalog forest. The upstream nests categories a
// single level deep in practice, but nothing here depends on that.
type Category struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	Subcategories []Category `json:"subcategories"`
}

// ProductRef is the minimal product identifier found inside category detail
// payloads. Everything beyond the id is passed through verbatim elsewhere.
type ProductRef struct {
	ID int `json:"id"`
}

// categoriesRoot mirrors the shape of the categories-list endpoint. Only the
// fields needed for traversal are declared; the raw body is persisted as-is.
type categoriesRoot struct {
	Results []categoryNode `json:"results"`
}

type categoryNode struct {
	ID         FlexID         `json:"id"`
	Name       string         `json:"name"`
	Categories []categoryNode `json:"categories"`
}

// ParseForest decodes the categories-list body into the normalized category
// forest. Category IDs must be unique across the whole forest.
func ParseForest(raw []byte) ([]Category, error) {
	var root categoriesRoot
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("failed to decode categories payload: %w", err)
	}
	if root.Results == nil {
		return nil, fmt.Errorf("unexpected categories payload: missing 'results'")
	}

	seen := make(map[int]struct{})
	forest := make([]Category, 0, len(root.Results))
	for _, node := range root.Results {
		cat, err := normalizeCategory(node, seen)
		if err != nil {
			return nil, err
		}
		forest = append(forest, cat)
	}
	return forest, nil
}

func normalizeCategory(node categoryNode, seen map[int]struct{}) (Category, error) {
	id := node.ID.Int()
	if _, dup := seen[id]; dup {
		return Category{}, fmt.Errorf("duplicate category id %d in forest", id)
	}
	seen[id] = struct{}{}

	cat := Category{
		ID:            id,
		Name:          node.Name,
		Subcategories: make([]Category, 0, len(node.Categories)),
	}
	for _, child := range node.Categories {
		sub, err := normalizeCategory(child, seen)
		if err != nil {
			return Category{}, err
		}
		cat.Subcategories = append(cat.Subcategories, sub)
	}
	return cat, nil
}
