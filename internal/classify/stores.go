package classify

import "strings"

// KnownChains are the retail chains the classifier recognizes.
var KnownChains = []string{
	"Tesco",
	"Aldi",
	"Sainsburys",
	"Lidl",
	"Asda",
	"Morrisons",
	"Waitrose",
	"MnS",
}

// bigFour is the fallback for recognizable brands with no store hint:
// a big-name brand is probably stocked by all of them.
var bigFour = []string{"Tesco", "Sainsburys", "Asda", "Morrisons"}

// Stores maps free-text store and brand hints to known chain names.
// Matching is case-insensitive substring containment over the concatenated
// hints. When nothing matches but a brand was supplied, the big-four default
// set is returned; recall is preferred over precision here.
func Stores(storeHint, brand string) []string {
	combined := strings.ToLower(storeHint + " " + brand)

	found := make([]string, 0, len(KnownChains))
	for _, chain := range KnownChains {
		if strings.Contains(combined, strings.ToLower(chain)) {
			found = append(found, chain)
		}
	}

	if len(found) == 0 && strings.TrimSpace(brand) != "" {
		out := make([]string, len(bigFour))
		copy(out, bigFour)
		return out
	}

	return found
}
