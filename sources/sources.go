package sources

import "strings"

// Normalizer translates traffic source names between the dashboard's display
// vocabulary and the warehouse's internal tokens. The table is fixed at
// startup and injective in both directions; anything outside it passes
// through unchanged.
type Normalizer struct {
	displayToWarehouse map[string]string
	warehouseToDisplay map[string]string
	displayOrder       []string
}

var defaultPairs = [][2]string{
	{"App Store Search", "App_Store_Search"},
	{"App Store Browse", "App_Store_Browse"},
	{"Apple Search Ads", "Apple_Search_Ads"},
	{"App Referrer", "App_Referrer"},
	{"Web Referrer", "Web_Referrer"},
	{"Event Notification", "Event_Notification"},
	{"Institutional Purchase", "Institutional_Purchase"},
	{"Unavailable", "Unavailable"},
}

func NewNormalizer() *Normalizer {
	n := &Normalizer{
		displayToWarehouse: make(map[string]string, len(defaultPairs)),
		warehouseToDisplay: make(map[string]string, len(defaultPairs)),
	}
	for _, pair := range defaultPairs {
		n.displayToWarehouse[pair[0]] = pair[1]
		n.warehouseToDisplay[pair[1]] = pair[0]
		n.displayOrder = append(n.displayOrder, pair[0])
	}
	return n
}

// ToDisplay maps a warehouse token to its display name. Unknown tokens come
// back unchanged.
func (n *Normalizer) ToDisplay(warehouseToken string) string {
	if display, ok := n.warehouseToDisplay[warehouseToken]; ok {
		return display
	}
	return warehouseToken
}

// ToWarehouse maps a display name to its warehouse token. Unknown names come
// back unchanged.
func (n *Normalizer) ToWarehouse(display string) string {
	if token, ok := n.displayToWarehouse[display]; ok {
		return token
	}
	return display
}

// DisplayNames returns the display vocabulary in table order.
func (n *Normalizer) DisplayNames() []string {
	out := make([]string, len(n.displayOrder))
	copy(out, n.displayOrder)
	return out
}

// NormalizeInput coerces whatever shape the client sent for a traffic source
// filter into a clean string slice. Accepts nil, a bare string, a string
// slice, or a JSON-decoded []any; every other shape yields an empty slice.
// Entries are trimmed, empties dropped, duplicates removed, order preserved.
func NormalizeInput(raw any) []string {
	var candidates []string

	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		candidates = []string{v}
	case []string:
		candidates = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				candidates = append(candidates, s)
			}
		}
	default:
		return nil
	}

	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, c := range candidates {
		s := strings.TrimSpace(c)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
