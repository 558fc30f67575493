package stores

import "regexp"

var laAnonimaAskPricePattern = regexp.MustCompile(`(?i)consultar precio`)

// LaAnonimaStrategies is the extraction plan for La Anónima Online.
// Many listings omit the price entirely ("Consultar precio").
func LaAnonimaStrategies() Strategies {
	return Strategies{
		Containers: []ContainerStrategy{
			BySelector("div.producto.item"),
			BySelector("div.caja-producto"),
			BySelector("div[data-codigo]"),
		},
		Name: []FieldStrategy{
			Text("div.titulo a"),
			Text("div.titulo"),
			Attr("a.link_producto", "title"),
		},
		Brand: []FieldStrategy{
			Text("div.marca"),
			SelfAttr("data-marca"),
		},
		Description: []FieldStrategy{
			Text("div.contenido-producto"),
		},
		Price: []FieldStrategy{
			Text("div.precio-promo span.precio"),
			Text("div.precio_complemento div.precio"),
			Text("span.precio"),
			SelfAttr("data-precio"),
		},
		Image: []FieldStrategy{
			Attr("img.imagen", "data-src", "src"),
			Attr("div.imagen img", "data-src", "src"),
		},
		Link: []FieldStrategy{
			Attr("a.link_producto", "href"),
			Attr("div.titulo a", "href"),
		},
		Availability: []FlagStrategy{
			Present("div.sin-stock", false),
			TextMatches(laAnonimaAskPricePattern, true),
			Present("div.agregar_carrito, a.btn-comprar", true),
		},
	}
}
