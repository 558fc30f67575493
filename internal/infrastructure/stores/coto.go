package stores

import "regexp"

var cotoNoStockPattern = regexp.MustCompile(`(?i)sin stock|producto no disponible`)

// CotoStrategies is the extraction plan for Coto Digital result listings.
// The list layout changed twice; both generations are kept ahead of the generic heuristics.
func CotoStrategies() Strategies {
	return Strategies{
		Containers: []ContainerStrategy{
			BySelector("ul#products > li[id^=prod]"),
			BySelector("div.product_info_container"),
			BySelector("catalogue-product, div.producto-card"),
		},
		Name: []FieldStrategy{
			Text("div.descrip_full"),
			Text("span.span_productName"),
			Text("h3.nombre-producto"),
		},
		Brand: []FieldStrategy{
			Text("span.product_brand"),
			SelfAttr("data-brand"),
		},
		Price: []FieldStrategy{
			Text("span.atg_store_newPrice"),
			Text("span.price_discount"),
			Text("h4.card-title"),
			Text("span.atg_store_productPrice"),
		},
		Image: []FieldStrategy{
			Attr("img.atg_store_productImage", "src"),
			Attr("img.product-image", "data-src", "src"),
		},
		Link: []FieldStrategy{
			Attr("div.product_info_container > a", "href"),
			Attr("a.product-link", "href"),
		},
		Availability: []FlagStrategy{
			Present("div.product_not_available", false),
			TextMatches(cotoNoStockPattern, false),
			Present("button.atg_store_addToCart, button.btn-agregar", true),
		},
	}
}
