package consts

import "math"

const (
	DegToRad = math.Pi / 180.0 // Degree to radian
	RadToDeg = 180.0 / math.Pi // Radian to degree
	TwoPi    = 2 * math.Pi     // omega = 2*pi*f

	GroundNode = "0" // Reference node label
)
