package domain

import "strings"

// StoreKey identifies one of the known storefronts
type StoreKey string

// Known storefronts. Additional markup stores may be configured by key alone.
const (
	StoreJumbo     StoreKey = "jumbo"
	StoreCoto      StoreKey = "coto"
	StoreLaAnonima StoreKey = "laanonima"
)

// Product is one offer at one store. Optional fields are nil when the
// store did not expose them.
type Product struct {
	Name         *string  `json:"name"`
	Brand        *string  `json:"brand"`
	Description  *string  `json:"description"`
	Price        *string  `json:"price"`
	PriceNumeric *float64 `json:"priceNumeric"`
	Available    *bool    `json:"available,omitempty"`
	ImageURL     *string  `json:"imageUrl"`
	Link         *string  `json:"link"`
	Store        StoreKey `json:"store"`
	StoreName    string   `json:"storeName"`
}

// NameValue returns the product name or "" when it was not extracted
func (p Product) NameValue() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}

// HasPrice reports whether the product carries a usable positive price
func (p Product) HasPrice() bool {
	return p.PriceNumeric != nil && *p.PriceNumeric > 0
}

// ReducedProduct is the minimal view of a Product sent to the selection step.
type ReducedProduct struct {
	Name  *string  `json:"name"`
	Brand *string  `json:"brand"`
	Price *string  `json:"price"`
	Store StoreKey `json:"store"`
}

// Reduce strips a product down to the fields selection needs
func (p Product) Reduce() ReducedProduct {
	return ReducedProduct{
		Name:  p.Name,
		Brand: p.Brand,
		Price: p.Price,
		Store: p.Store,
	}
}

// StringPtr returns a pointer to the trimmed value, or nil if it is blank.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// FloatPtr returns a pointer to v
func FloatPtr(v float64) *float64 {
	return &v
}

// BoolPtr returns a pointer to v
func BoolPtr(v bool) *bool {
	return &v
}
