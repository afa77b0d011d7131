package workflow

import "strings"

// standardColours do not need the exterior paint phase.
var standardColours = []string{"brown", "white"}

// RequiresPaint reports whether either frame colour is outside the standard
// set. Empty colours count as standard.
func RequiresPaint(exteriorColour, interiorColour string) bool {
	return nonStandard(exteriorColour) || nonStandard(interiorColour)
}

func nonStandard(colour string) bool {
	colour = strings.TrimSpace(colour)
	if colour == "" {
		return false
	}
	for _, c := range standardColours {
		if strings.EqualFold(colour, c) {
			return false
		}
	}
	return true
}
