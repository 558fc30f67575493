package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cartscout/backend/internal/domain"
)

const selectionSystemPrompt = `You are a grocery shopping assistant for Argentine supermarkets.
For every store, pick at most one product per ingredient from the candidates you are given.
Prefer, in order: a product that actually is the ingredient (not a derivative), a package size
close to the requested quantity, the best price per unit, products marked available, and fresh
over processed when the ingredient is produce, meat or dairy.
Only choose among the listed candidates of that same store and copy the product name exactly.
Omit an ingredient from a store's cart when the store has no suitable candidate, and omit the
store entirely when it has none at all.
Reply with JSON only, in this shape:
{"carts":[{"store":"<store key>","items":[{"ingredient":"<ingredient>","quantity":<number>,"unit":"<unit>","product":{"name":"<exact product name>","store":"<store key>"}}]}]}`

// selectionRequest is the reduced candidate payload sent to the model
type selectionRequest struct {
	Ingredient string                  `json:"ingredient"`
	Quantity   float64                 `json:"quantity"`
	Unit       string                  `json:"unit"`
	Products   []domain.ReducedProduct `json:"products"`
}

// buildSelectionPrompt reduces every candidate to name, brand, price and store
func buildSelectionPrompt(candidates []domain.CandidateSet, stores []domain.StoreKey) (string, error) {
	reduced := make([]selectionRequest, len(candidates))
	for i, set := range candidates {
		products := make([]domain.ReducedProduct, 0, len(set.Products))
		for _, p := range set.Products {
			products = append(products, p.Reduce())
		}
		reduced[i] = selectionRequest{
			Ingredient: set.Ingredient,
			Quantity:   set.Quantity,
			Unit:       set.Unit,
			Products:   products,
		}
	}

	payload, err := json.Marshal(reduced)
	if err != nil {
		return "", fmt.Errorf("failed to encode candidates: %w", err)
	}

	keys := make([]string, len(stores))
	for i, k := range stores {
		keys[i] = string(k)
	}

	var b strings.Builder
	b.WriteString("Stores: ")
	b.WriteString(strings.Join(keys, ", "))
	b.WriteString("\n\nCandidates per ingredient:\n")
	b.Write(payload)
	return b.String(), nil
}

// selectionResponse is the structure the model is asked to return
type selectionResponse struct {
	Carts *[]selectedCart `json:"carts"`
}

type selectedCart struct {
	Store     domain.StoreKey `json:"store"`
	StoreName string          `json:"storeName"`
	Items     []selectedItem  `json:"items"`
}

type selectedItem struct {
	Ingredient string          `json:"ingredient"`
	Quantity   flexibleNumber  `json:"quantity"`
	Unit       string          `json:"unit"`
	Product    selectedProduct `json:"product"`
}

// selectedProduct is the stub identifying a choice; anything else the model echoes is ignored
type selectedProduct struct {
	Name  string          `json:"name"`
	Brand string          `json:"brand"`
	Store domain.StoreKey `json:"store"`
}

// flexibleNumber accepts 500, 500.5, "500" and "500,5"; anything else decodes to 0
type flexibleNumber float64

func (n *flexibleNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = flexibleNumber(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64); err == nil {
			*n = flexibleNumber(v)
			return nil
		}
	}
	*n = 0
	return nil
}

var codeFenceRegex = regexp.MustCompile("```[A-Za-z]*")

// ParseSelection decodes the model output into cart skeletons. The output may
// be wrapped in prose or code fences; the first balanced JSON object holding
// a "carts" array wins. Skeletons carry only what the model returned.
func ParseSelection(raw string) ([]domain.Cart, error) {
	text := codeFenceRegex.ReplaceAllString(raw, "")

	for start := strings.IndexByte(text, '{'); start >= 0; {
		// an unbalanced brace in prose must not hide a later object
		if end := matchingBrace(text, start); end >= 0 {
			var resp selectionResponse
			if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err == nil && resp.Carts != nil {
				return toSkeletons(*resp.Carts), nil
			}
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, fmt.Errorf("%w: no JSON object with a carts array in response", domain.ErrSelectionParse)
}

// matchingBrace returns the index of the brace closing the object opened at
// start, or -1. Braces inside JSON strings are ignored.
func matchingBrace(s string, start int) int {
	depth := 0
	inString, escaped := false, false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// toSkeletons converts decoded carts, dropping carts with no items
func toSkeletons(carts []selectedCart) []domain.Cart {
	out := make([]domain.Cart, 0, len(carts))
	for _, c := range carts {
		if len(c.Items) == 0 {
			continue
		}
		store := c.Store
		if store == "" {
			store = c.Items[0].Product.Store
		}
		cart := domain.Cart{
			Store:     store,
			StoreName: c.StoreName,
			Items:     make([]domain.CartItem, 0, len(c.Items)),
		}
		for _, it := range c.Items {
			productStore := it.Product.Store
			if productStore == "" {
				productStore = store
			}
			cart.Items = append(cart.Items, domain.CartItem{
				Ingredient: it.Ingredient,
				Quantity:   float64(it.Quantity),
				Unit:       it.Unit,
				Product: domain.Product{
					Name:  domain.StringPtr(it.Product.Name),
					Brand: domain.StringPtr(it.Product.Brand),
					Store: productStore,
				},
			})
		}
		out = append(out, cart)
	}
	return out
}
