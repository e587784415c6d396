package domain

import (
	"encoding/json"
	"sort"
)

// CollectProductIDs walks an arbitrary category-detail payload and gathers
// every product id referenced by any "products" array, at any depth. The exact
// placement of product references inside category detail is observed behavior,
// not documented, so the walk makes no assumptions about the payload shape
// beyond "products is a list of objects with an id".
func CollectProductIDs(raw []byte) map[int]struct{} {
	ids := make(map[int]struct{})

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ids
	}

	walkForProducts(payload, ids)
	return ids
}

func walkForProducts(node any, ids map[int]struct{}) {
	switch v := node.(type) {
	case map[string]any:
		if products, ok := v["products"].([]any); ok {
			for _, p := range products {
				obj, ok := p.(map[string]any)
				if !ok {
					continue
				}
				if id, ok := productID(obj["id"]); ok {
					ids[id] = struct{}{}
				}
			}
		}
		for key, child := range v {
			if key == "products" {
				continue
			}
			walkForProducts(child, ids)
		}
	case []any:
		for _, item := range v {
			walkForProducts(item, ids)
		}
	}
}

func productID(v any) (int, bool) {
	switch id := v.(type) {
	case float64:
		if id != float64(int(id)) {
			return 0, false
		}
		return int(id), true
	case string:
		n, err := json.Number(id).Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// SortedIDs flattens an id set into the stable ascending order used for the
// persisted index.
func SortedIDs(set map[int]struct{}) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
