package domain

// IngredientRequirement is one line of an external meal plan.
type IngredientRequirement struct {
	Ingredient string  `json:"ingredient"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
}

// CandidateSet holds every product found across stores for one requirement.
type CandidateSet struct {
	IngredientRequirement
	Products []Product `json:"products"`
}

// CandidatesFor returns the candidates offered by store
func (c CandidateSet) CandidatesFor(store StoreKey) []Product {
	var out []Product
	for _, p := range c.Products {
		if p.Store == store {
			out = append(out, p)
		}
	}
	return out
}

// CartItem binds a selected product to the requirement it satisfies
type CartItem struct {
	Ingredient string  `json:"ingredient"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	Product    Product `json:"product"`
}

// Cart is the per-store selection with its computed total.
// Total is always recomputed from the items and never trusted from upstream.
type Cart struct {
	Store     StoreKey   `json:"store"`
	StoreName string     `json:"storeName"`
	Items     []CartItem `json:"items"`
	Total     float64    `json:"total"`
}
