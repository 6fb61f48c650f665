package rock

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RockType identifies one of the supported rock kinds.
// The numeric code is what the predictor consumes.
type RockType int

const (
	Granite   RockType = 1
	Marble    RockType = 2
	Limestone RockType = 3
	Sandstone RockType = 4
	Shale     RockType = 5
)

// RockTypes lists every supported kind in code order
var RockTypes = []RockType{Granite, Marble, Limestone, Sandstone, Shale}

var rockNames = map[RockType]string{
	Granite:   "granite",
	Marble:    "marble",
	Limestone: "limestone",
	Sandstone: "sandstone",
	Shale:     "shale",
}

// Valid reports whether r is one of the five encoded kinds
func (r RockType) Valid() bool {
	return r >= Granite && r <= Shale
}

// Code returns the numeric encoding used in the feature vector
func (r RockType) Code() int {
	return int(r)
}

func (r RockType) String() string {
	if name, ok := rockNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RockType(%d)", int(r))
}

// ParseRockType accepts a rock name ("granite") or a numeric code ("1").
func ParseRockType(s string) (RockType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, NewInvalidInputError("rock_type", s, "is required")
	}

	if code, err := strconv.Atoi(s); err == nil {
		rt := RockType(code)
		if !rt.Valid() {
			return 0, NewInvalidInputError("rock_type", code, "must be one of 1-5")
		}
		return rt, nil
	}

	for rt, name := range rockNames {
		if name == s {
			return rt, nil
		}
	}
	return 0, NewInvalidInputError("rock_type", s, "unknown rock type")
}

// MarshalJSON encodes the rock type as its numeric code
func (r RockType) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(r))
}

// UnmarshalJSON accepts either the numeric code, written as 1 or 1.0, or
// the rock name. Out-of-range codes decode as-is so that validation can
// report them.
func (r *RockType) UnmarshalJSON(data []byte) error {
	var code float64
	if err := json.Unmarshal(data, &code); err == nil {
		if code != math.Trunc(code) || math.Abs(code) > math.MaxInt32 {
			return NewInvalidInputError("rock_type", code, "must be a whole number")
		}
		*r = RockType(int(code))
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return NewInvalidInputError("rock_type", string(data), "must be a rock name or code")
	}
	rt, err := ParseRockType(name)
	if err != nil {
		return err
	}
	*r = rt
	return nil
}
