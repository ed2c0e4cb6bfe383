package domain

import "strings"

// beerCatalog is the bar's fixed menu. Exact names, no patterns.
var beerCatalog = map[string]struct{}{
	"Lager":      {},
	"IPA":        {},
	"Stout":      {},
	"Wheat Beer": {},
}

// Classify splits the requested items into the kitchen and bar groups.
// The beer catalog is checked first, then the burger rule, so every item
// lands in exactly one group; an item matching neither is rejected rather
// than silently dropped.
func Classify(items []string) (burgers, beers []string, err error) {
	for _, item := range items {
		switch {
		case inBeerCatalog(item):
			beers = append(beers, item)
		case strings.Contains(item, "Burger"):
			burgers = append(burgers, item)
		default:
			return nil, nil, &ValidationError{Reason: "unknown item: " + item}
		}
	}
	return burgers, beers, nil
}

func inBeerCatalog(item string) bool {
	_, ok := beerCatalog[item]
	return ok
}
