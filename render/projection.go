package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-drive/parameter"
)

// referenceDistance is the camera distance drawn at unit zoom
var referenceDistance = mgl64.Vec3(parameter.CameraOffset).Len()

// Projection maps the ground plane to terminal cells, looking down along the camera's view
// Screen up is the camera's horizontal look direction
type Projection struct {
	Target   mgl64.Vec3
	cos, sin float64
	scaleX   float64
	scaleZ   float64
	cx, cy   float64
}

// NewProjection centers target in a width×height view
func NewProjection(target mgl64.Vec3, azimuth, distance float64, width, height int) Projection {
	zoom := 1.0
	if distance > 0 {
		zoom = referenceDistance / distance
	}
	return Projection{
		Target: target,
		cos:    math.Cos(azimuth),
		sin:    math.Sin(azimuth),
		scaleX: parameter.CellsPerUnitX * zoom,
		scaleZ: parameter.CellsPerUnitZ * zoom,
		cx:     float64(width) / 2,
		cy:     float64(height) / 2,
	}
}

// ToScreen returns the cell under a world point
func (p Projection) ToScreen(w mgl64.Vec3) (int, int) {
	dx := w.X() - p.Target.X()
	dz := w.Z() - p.Target.Z()
	rx := dx*p.cos - dz*p.sin
	rz := dx*p.sin + dz*p.cos
	return int(math.Floor(p.cx + rx*p.scaleX)), int(math.Floor(p.cy + rz*p.scaleZ))
}

// ToWorld returns the ground point at a cell center
func (p Projection) ToWorld(x, y int) mgl64.Vec3 {
	rx := (float64(x) + 0.5 - p.cx) / p.scaleX
	rz := (float64(y) + 0.5 - p.cy) / p.scaleZ
	dx := rx*p.cos + rz*p.sin
	dz := -rx*p.sin + rz*p.cos
	return mgl64.Vec3{p.Target.X() + dx, 0, p.Target.Z() + dz}
}
