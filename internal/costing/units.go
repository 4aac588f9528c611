package costing

import "strings"

// smallUnits are quoted against a per-kilogram or per-litre price.
var smallUnits = map[string]bool{
	"g":           true,
	"gr":          true,
	"gram":        true,
	"grams":       true,
	"gramme":      true,
	"ml":          true,
	"milliliter":  true,
	"milliliters": true,
	"millilitre":  true,
	"millilitres": true,
}

// UnitMultiplier returns the divisor applied to quantity*price for a line
// quoted in unit: 1000 for grams and millilitres, 1 for everything else.
func UnitMultiplier(unit string) float64 {
	if smallUnits[strings.ToLower(strings.TrimSpace(unit))] {
		return 1000
	}
	return 1
}
