package tax

import "math"

// Bracket taxes income above Floor, up to Ceiling, at Rate. Base is the
// cumulative tax owed on income up to Floor.
type Bracket struct {
	Floor   float64
	Ceiling float64
	Rate    float64
	Base    float64
}

// Single2024 is the 2024 single-filer schedule. Income below the first floor is untaxed.
var Single2024 = []Bracket{
	{Floor: 11600, Ceiling: 44725, Rate: 0.12, Base: 0},
	{Floor: 44725, Ceiling: 95375, Rate: 0.22, Base: 3974.88},
	{Floor: 95375, Ceiling: 182100, Rate: 0.24, Base: 14198.88},
	{Floor: 182100, Ceiling: 231250, Rate: 0.32, Base: 36147.88},
	{Floor: 231250, Ceiling: 578125, Rate: 0.35, Base: 51842.88},
	{Floor: 578125, Ceiling: math.Inf(1), Rate: 0.37, Base: 174238.88},
}
