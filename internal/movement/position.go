package movement

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Position names one of the 9 cells of the body outline grid.
type Position string

const (
	PositionHighLeft     Position = "high left"
	PositionHighCentre   Position = "high centre"
	PositionHighRight    Position = "high right"
	PositionMiddleLeft   Position = "middle left"
	PositionMiddleCentre Position = "middle centre"
	PositionMiddleRight  Position = "middle right"
	PositionLowLeft      Position = "low left"
	PositionLowCentre    Position = "low centre"
	PositionLowRight     Position = "low right"
)

type Coordinate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// positionCoordinates is the canonical position to heat map coordinate mapping,
// shared by the aggregation and the chart rendering (served by the positions endpoint).
var positionCoordinates = map[Position]Coordinate{
	PositionHighLeft:     {X: 1, Y: 61},
	PositionHighCentre:   {X: 31, Y: 61},
	PositionHighRight:    {X: 61, Y: 61},
	PositionMiddleLeft:   {X: 1, Y: 31},
	PositionMiddleCentre: {X: 31, Y: 31},
	PositionMiddleRight:  {X: 61, Y: 31},
	PositionLowLeft:      {X: 1, Y: 1},
	PositionLowCentre:    {X: 31, Y: 1},
	PositionLowRight:     {X: 61, Y: 1},
}

// AllPositions lists the positions top to bottom, left to right, the way the capture grid shows them.
var AllPositions = []Position{
	PositionHighLeft, PositionHighCentre, PositionHighRight,
	PositionMiddleLeft, PositionMiddleCentre, PositionMiddleRight,
	PositionLowLeft, PositionLowCentre, PositionLowRight,
}

func (p Position) IsValid() bool {
	_, ok := positionCoordinates[p]
	return ok
}

func (p Position) Coordinate() (Coordinate, bool) {
	c, ok := positionCoordinates[p]
	return c, ok
}

// Label is the display label, e.g. "High Centre".
func (p Position) Label() string {
	// a Caser keeps state, so it is not shared between requests
	return cases.Title(language.BritishEnglish).String(string(p))
}

type PositionMapping struct {
	Position Position `json:"position"`
	Label    string   `json:"label"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
}

func PositionMappings() []PositionMapping {
	mappings := make([]PositionMapping, 0, len(AllPositions))
	for _, p := range AllPositions {
		c := positionCoordinates[p]
		mappings = append(mappings, PositionMapping{
			Position: p,
			Label:    p.Label(),
			X:        c.X,
			Y:        c.Y,
		})
	}
	return mappings
}
