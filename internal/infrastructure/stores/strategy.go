package stores

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ContainerStrategy locates product containers on a search results page
type ContainerStrategy func(doc *goquery.Document) *goquery.Selection

// FieldStrategy extracts one raw field value from a product container.
// An empty string means the strategy found nothing.
type FieldStrategy func(s *goquery.Selection) string

// FlagStrategy extracts a boolean field; ok is false when nothing was found.
type FlagStrategy func(s *goquery.Selection) (value bool, ok bool)

// Strategies is the ordered extraction plan of a markup store.
// Each list is tried in order and stops at the first strategy that yields something.
type Strategies struct {
	Containers   []ContainerStrategy
	Name         []FieldStrategy
	Brand        []FieldStrategy
	Description  []FieldStrategy
	Price        []FieldStrategy
	Image        []FieldStrategy
	Link         []FieldStrategy
	Availability []FlagStrategy
}

// WithGenericFallbacks appends the store-agnostic heuristics after every list
func (s Strategies) WithGenericFallbacks() Strategies {
	g := GenericStrategies()
	return Strategies{
		Containers:   append(clone(s.Containers), g.Containers...),
		Name:         append(clone(s.Name), g.Name...),
		Brand:        append(clone(s.Brand), g.Brand...),
		Description:  append(clone(s.Description), g.Description...),
		Price:        append(clone(s.Price), g.Price...),
		Image:        append(clone(s.Image), g.Image...),
		Link:         append(clone(s.Link), g.Link...),
		Availability: append(clone(s.Availability), g.Availability...),
	}
}

func clone[T any](in []T) []T {
	return append([]T(nil), in...)
}

// FindContainers returns the matches of the first strategy that finds any
func FindContainers(doc *goquery.Document, strategies []ContainerStrategy) *goquery.Selection {
	for _, find := range strategies {
		if sel := find(doc); sel != nil && sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// FirstField returns the first non-empty value accepted by accept.
// A nil accept takes any non-empty value.
func FirstField(s *goquery.Selection, strategies []FieldStrategy, accept func(string) bool) string {
	for _, extract := range strategies {
		v := cleanText(extract(s))
		if v == "" {
			continue
		}
		if accept == nil || accept(v) {
			return v
		}
	}
	return ""
}

// FirstFlag returns the first flag any strategy could determine
func FirstFlag(s *goquery.Selection, strategies []FlagStrategy) (bool, bool) {
	for _, extract := range strategies {
		if v, ok := extract(s); ok {
			return v, true
		}
	}
	return false, false
}

// BySelector finds containers with a CSS selector
func BySelector(selector string) ContainerStrategy {
	return func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(selector)
	}
}

// Text reads the text of the first element matching selector
func Text(selector string) FieldStrategy {
	return func(s *goquery.Selection) string {
		return s.Find(selector).First().Text()
	}
}

// Attr reads the first present attribute among attrs on the first element matching selector
func Attr(selector string, attrs ...string) FieldStrategy {
	return func(s *goquery.Selection) string {
		el := s.Find(selector).First()
		for _, a := range attrs {
			if v, ok := el.Attr(a); ok && strings.TrimSpace(v) != "" {
				return v
			}
		}
		return ""
	}
}

// SelfAttr reads an attribute from the container element itself
func SelfAttr(attr string) FieldStrategy {
	return func(s *goquery.Selection) string {
		return s.AttrOr(attr, "")
	}
}

// Present reports value when selector matches inside the container
func Present(selector string, value bool) FlagStrategy {
	return func(s *goquery.Selection) (bool, bool) {
		if s.Find(selector).Length() > 0 {
			return value, true
		}
		return false, false
	}
}

// TextMatches reports value when the container text matches pattern
func TextMatches(pattern *regexp.Regexp, value bool) FlagStrategy {
	return func(s *goquery.Selection) (bool, bool) {
		if pattern.MatchString(s.Text()) {
			return value, true
		}
		return false, false
	}
}

var (
	cardClassPattern   = regexp.MustCompile(`(?i)product|item|card`)
	outOfStockPattern  = regexp.MustCompile(`(?i)sin stock|agotado|no disponible|out of stock`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	nameLikeSelectors  = "h2, h3, h4, [class*=name], [class*=Name], [class*=title], [class*=Title], [class*=descrip]"
	brandLikeSelectors = "[class*=brand], [class*=Brand], [class*=marca]"
	priceLikeSelectors = "[class*=price], [class*=Price], [class*=precio]"
)

// GenericStrategies are the store-agnostic heuristics used as the last resort
func GenericStrategies() Strategies {
	return Strategies{
		Containers:   []ContainerStrategy{GenericProductCards},
		Name:         []FieldStrategy{Text(nameLikeSelectors), Attr("img", "alt", "title")},
		Brand:        []FieldStrategy{Text(brandLikeSelectors)},
		Description:  []FieldStrategy{Text("[class*=description], [class*=desc]")},
		Price:        []FieldStrategy{Text(priceLikeSelectors), CurrencyText},
		Image:        []FieldStrategy{Attr("img", "data-src", "data-original", "src")},
		Link:         []FieldStrategy{Attr("a[href]", "href")},
		Availability: []FlagStrategy{TextMatches(outOfStockPattern, false)},
	}
}

// GenericProductCards finds the innermost elements whose class looks like a
// product card and that contain both an image and a currency amount.
func GenericProductCards(doc *goquery.Document) *goquery.Selection {
	candidates := doc.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return cardClassPattern.MatchString(s.AttrOr("class", "")) &&
			s.Find("img").Length() > 0 &&
			hasCurrencyMarker(s.Text())
	})

	// a grid wrapping several cards also matches; keep only the cards
	return candidates.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("*").FilterSelection(candidates).Length() == 0
	})
}

// CurrencyText returns the shortest element text inside the container that carries a currency amount
func CurrencyText(s *goquery.Selection) string {
	best := ""
	s.Find("*").Each(func(_ int, el *goquery.Selection) {
		txt := cleanText(el.Text())
		if txt == "" || !hasCurrencyMarker(txt) {
			return
		}
		if best == "" || len(txt) < len(best) {
			best = txt
		}
	})
	return best
}

// cleanText collapses runs of whitespace and trims
func cleanText(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
