package grade

import "fmt"

// Grade is the ordinal rockburst hazard grade of a rock sample
type Grade int

const (
	None Grade = iota
	Weak
	Moderate
	Strong
)

// Count is the number of grades
const Count = 4

// All lists the grades in ordinal order
var All = [Count]Grade{None, Weak, Moderate, Strong}

type info struct {
	label       string
	color       string
	description string
}

var table = [Count]info{
	None: {
		label:       "No rockburst tendency",
		color:       "#4CAF50",
		description: "The rock remains stable during excavation and rockburst is unlikely.",
	},
	Weak: {
		label:       "Weak rockburst tendency",
		color:       "#FFC107",
		description: "Slight rock mass failure may occur, small in scale with limited damage.",
	},
	Moderate: {
		label:       "Moderate rockburst tendency",
		color:       "#FF9800",
		description: "A clear rockburst tendency; medium-scale events are possible and preventive measures are required.",
	},
	Strong: {
		label:       "Strong rockburst tendency",
		color:       "#F44336",
		description: "A strong rockburst tendency; large-scale events are likely and strict monitoring and protection are required.",
	},
}

// unknownColor is used for values outside the enumeration
const unknownColor = "#9E9E9E"

// Valid reports whether g is one of the four grades
func (g Grade) Valid() bool {
	return g >= None && g <= Strong
}

// Label returns the human-readable name of the grade
func (g Grade) Label() string {
	if !g.Valid() {
		return "Unknown grade"
	}
	return table[g].label
}

// Color returns the display colour as a hex string
func (g Grade) Color() string {
	if !g.Valid() {
		return unknownColor
	}
	return table[g].color
}

// Description explains what the grade means for excavation
func (g Grade) Description() string {
	if !g.Valid() {
		return ""
	}
	return table[g].description
}

func (g Grade) String() string {
	if !g.Valid() {
		return fmt.Sprintf("Grade(%d)", int(g))
	}
	return fmt.Sprintf("%s (grade %d)", g.Label(), int(g))
}

// Advice is general rockburst prevention guidance shown next to results
var Advice = []string{
	"Carry out a detailed rock mass stability assessment before tunnelling or underground excavation.",
	"Use controlled blasting in areas with a moderate or higher rockburst tendency.",
	"Consider pre-splitting or smooth blasting to reduce blast vibration.",
	"In areas with a strong rockburst tendency, drill stress-relief boreholes.",
	"Strengthen monitoring to detect rockburst precursors early.",
}
