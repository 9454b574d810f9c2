package parameter

import "math"

// Follow camera orbit constraints
const (
	CameraMinDistance = 5.0
	CameraMaxDistance = 30.0
	// CameraMaxPolar keeps the camera above the horizon
	CameraMaxPolar = math.Pi / 2.1
	CameraMinPolar = 0.05

	// CameraZoomStep scales distance per zoom request
	CameraZoomStep = 1.15
	// CameraOrbitStep is the azimuth change per orbit request, radians
	CameraOrbitStep = math.Pi / 16
)

// CameraOffset is the initial eye position relative to the target
var CameraOffset = [3]float64{0, 5, 12}

// Terminal projection
const (
	// CellsPerUnitX is horizontal terminal cells per world unit at unit zoom
	CellsPerUnitX = 2.0
	// CellsPerUnitZ compensates for terminal cell aspect
	CellsPerUnitZ = 1.0
)
