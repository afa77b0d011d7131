package workflow

import (
	"strings"
	"time"
)

// MaterialType is a kind of supply item an order depends on.
type MaterialType string

const (
	MaterialExteriorPanel        MaterialType = "exterior_panel"
	MaterialSpecialInteriorPanel MaterialType = "special_interior_panel"
	MaterialTrim                 MaterialType = "trim"
	MaterialJambKit              MaterialType = "jamb_kit"
	MaterialGlass                MaterialType = "glass"
	MaterialPushBar              MaterialType = "push_bar"
)

// MaterialTypes lists every known material type.
var MaterialTypes = []MaterialType{
	MaterialExteriorPanel,
	MaterialSpecialInteriorPanel,
	MaterialTrim,
	MaterialJambKit,
	MaterialGlass,
	MaterialPushBar,
}

// Valid reports whether t is a known material type.
func (t MaterialType) Valid() bool {
	for _, mt := range MaterialTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// Panel subtypes.
const (
	SubtypeOkoume    = "okoume"
	SubtypeMDF       = "mdf"
	SubtypePVC       = "pvc"
	SubtypeAluminium = "aluminium"
	SubtypeLaminate  = "laminate"
)

// DefaultLeadTimeDays applies when neither the type:subtype nor the type has
// a configured lead time.
const DefaultLeadTimeDays = 30

var leadTimeDays = map[string]int{
	"exterior_panel:okoume":    30,
	"exterior_panel:mdf":       30,
	"exterior_panel:pvc":       40,
	"exterior_panel:aluminium": 40,
	"trim:okoume":              20,
	"trim:mdf":                 20,
	"jamb_kit":                 20,
	"glass":                    20,
	"push_bar":                 20,
}

// IsStockItem reports whether the subtype is kept in stock and therefore
// never tracked as an order material.
func IsStockItem(subtype string) bool {
	return strings.EqualFold(strings.TrimSpace(subtype), SubtypeLaminate)
}

// LeadTimeDays returns the expected delivery lag for a material. tracked is
// false for stock items.
func LeadTimeDays(materialType, subtype string) (days int, tracked bool) {
	if IsStockItem(subtype) {
		return 0, false
	}

	if subtype != "" {
		if d, ok := leadTimeDays[materialType+":"+strings.ToLower(subtype)]; ok {
			return d, true
		}
	}
	if d, ok := leadTimeDays[materialType]; ok {
		return d, true
	}
	return DefaultLeadTimeDays, true
}

// SuggestDelivery returns orderDate plus the material's lead time.
func SuggestDelivery(materialType, subtype string, orderDate time.Time) (time.Time, bool) {
	days, tracked := LeadTimeDays(materialType, subtype)
	if !tracked {
		return time.Time{}, false
	}
	return orderDate.AddDate(0, 0, days), true
}
