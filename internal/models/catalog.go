package models

// MenuItem is the authoritative catalog entry for a tenant.
type MenuItem struct {
	ID        string        `json:"id"`
	TenantID  string        `json:"tenant_id"`
	Name      string        `json:"name"`
	Price     int64         `json:"price"`
	Available bool          `json:"available"`
	Options   []PriceChoice `json:"options,omitempty"`
	Variants  []PriceChoice `json:"variants,omitempty"`
}

// PriceChoice is a named option or variant with a price delta in minor units.
type PriceChoice struct {
	Name       string `json:"name"`
	PriceDelta int64  `json:"price_delta"`
}

// Choice looks up a choice by name.
func Choice(choices []PriceChoice, name string) (PriceChoice, bool) {
	for _, c := range choices {
		if c.Name == name {
			return c, true
		}
	}
	return PriceChoice{}, false
}
