package rules

import "strings"

// Colors is the fixed enumeration order of the five colored pips.
var Colors = []string{"W", "U", "B", "R", "G"}

var basicLandNames = map[string]struct{}{
	"Plains":   {},
	"Island":   {},
	"Swamp":    {},
	"Mountain": {},
	"Forest":   {},
}

// BasicLandPrint identifies the concrete printing used when suggested lands
// are added to a deck.
type BasicLandPrint struct {
	Name string
	Set  string
}

var basicLandPrints = map[string]BasicLandPrint{
	"W": {Name: "Plains", Set: "unh"},
	"U": {Name: "Island", Set: "unh"},
	"B": {Name: "Swamp", Set: "unh"},
	"R": {Name: "Mountain", Set: "unh"},
	"G": {Name: "Forest", Set: "unh"},
}

// IsBasicLand matches on the exact card name. The card source does not
// expose a reliable "basic" flag.
func IsBasicLand(name string) bool {
	_, ok := basicLandNames[name]
	return ok
}

// BasicLandFor returns the print that produces the given color pip.
func BasicLandFor(color string) (BasicLandPrint, bool) {
	p, ok := basicLandPrints[color]
	return p, ok
}

// IsLegendaryCreature is the commander heuristic: a case-insensitive
// substring test on the type line.
func IsLegendaryCreature(typeLine string) bool {
	return strings.Contains(strings.ToLower(typeLine), "legendary creature")
}

func IsLand(typeLine string) bool {
	return strings.Contains(strings.ToLower(typeLine), "land")
}
