// Package render draws a session top-down into a terminal
package render

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-drive/engine"
	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/physics"
	"github.com/lixenwraith/vi-drive/vehicle"
	"github.com/lixenwraith/vi-drive/visual"
	"github.com/lixenwraith/vi-drive/vmath"
)

const (
	gridSpacing = 5.0
	hudRows     = 1
	helpText    = " arrows/wasd drive  space brake  r reset  p pause  +- zoom  [] orbit  q quit"
)

// Renderer composes the ground, obstacles, vehicle and HUD into a Canvas
type Renderer struct {
	canvas    *Canvas
	colliders []physics.Collider
}

// NewRenderer draws the given static colliders under the vehicle
func NewRenderer(width, height int, colliders []physics.Collider) *Renderer {
	return &Renderer{
		canvas:    NewCanvas(width, height),
		colliders: colliders,
	}
}

// Canvas exposes the composed frame
func (r *Renderer) Canvas() *Canvas { return r.canvas }

// Resize follows terminal size changes
func (r *Renderer) Resize(width, height int) {
	r.canvas.Resize(width, height)
}

// Draw composes one frame from snap
func (r *Renderer) Draw(snap engine.Snapshot) {
	c := r.canvas
	c.Clear()
	w, h := c.Size()
	if w == 0 || h == 0 {
		return
	}
	proj := NewProjection(snap.CameraTarget, snap.CameraAzimuth, snap.CameraDistance, w, h)

	r.drawGround(proj)
	for _, col := range r.colliders {
		if col.Drivable {
			continue
		}
		r.drawBlock(proj, col)
	}
	r.drawVehicle(proj, snap)
	r.drawHUD(snap)
}

// Render draws snap and flushes it to screen
func (r *Renderer) Render(screen tcell.Screen, snap engine.Snapshot) {
	w, h := screen.Size()
	if cw, ch := r.canvas.Size(); cw != w || ch != h {
		r.canvas.Resize(w, h)
	}
	r.Draw(snap)
	r.canvas.Flush(screen)
}

func (r *Renderer) drawGround(proj Projection) {
	c := r.canvas
	w, h := c.Size()
	var ground *physics.Collider
	for i := range r.colliders {
		if r.colliders[i].Drivable {
			ground = &r.colliders[i]
			break
		}
	}
	for y := hudRows; y < h-1; y++ {
		for x := 0; x < w; x++ {
			p := proj.ToWorld(x, y)
			if ground == nil || !ground.ContainsXZ(p) {
				continue
			}
			c.SetBg(x, y, colorGround)
			if onGrid(p.X(), proj.scaleX) && onGrid(p.Z(), proj.scaleZ) {
				c.Set(x, y, '+', colorGrid)
			} else if onGrid(p.X(), proj.scaleX) || onGrid(p.Z(), proj.scaleZ) {
				c.Set(x, y, '·', colorGrid)
			}
		}
	}
}

// onGrid reports whether a cell of width 1/scale straddles a grid line
func onGrid(v, scale float64) bool {
	half := 0.5 / scale
	m := math.Mod(v+half, gridSpacing)
	if m < 0 {
		m += gridSpacing
	}
	return m < 2*half
}

func (r *Renderer) drawBlock(proj Projection, col physics.Collider) {
	c := r.canvas
	w, h := c.Size()
	label := '#'
	for _, ch := range col.Name {
		label = ch
		break
	}
	minX, minY, maxX, maxY := footprint(proj, col.Center, col.HalfExtents.X(), col.HalfExtents.Z(), 0)
	for y := max(minY, hudRows); y <= min(maxY, h-2); y++ {
		for x := max(minX, 0); x <= min(maxX, w-1); x++ {
			p := proj.ToWorld(x, y)
			if math.Abs(p.X()-col.Center.X()) <= col.HalfExtents.X() &&
				math.Abs(p.Z()-col.Center.Z()) <= col.HalfExtents.Z() {
				c.Set(x, y, label, colorObstacle)
			}
		}
	}
}

// footprint bounds a yawed rectangle on screen
func footprint(proj Projection, center mgl64.Vec3, hx, hz, yaw float64) (minX, minY, maxX, maxY int) {
	minX, minY = math.MaxInt, math.MaxInt
	maxX, maxY = math.MinInt, math.MinInt
	rot := vmath.YawQuat(yaw)
	for _, corner := range [4]mgl64.Vec3{{-hx, 0, -hz}, {hx, 0, -hz}, {-hx, 0, hz}, {hx, 0, hz}} {
		x, y := proj.ToScreen(center.Add(rot.Rotate(corner)))
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}
	return
}

func (r *Renderer) drawVehicle(proj Projection, snap engine.Snapshot) {
	c := r.canvas
	w, h := c.Size()
	pos := snap.Position
	if !vmath.IsFiniteVec(pos) {
		return
	}
	yaw := vmath.Yaw(snap.Rotation)
	inv := vmath.YawQuat(-yaw)
	hx, hz := parameter.VehicleHalfWidth, parameter.VehicleHalfLength

	// Headlight beams toward their targets
	for _, target := range snap.Headlights {
		r.drawBeam(proj, pos, target)
	}

	minX, minY, maxX, maxY := footprint(proj, pos, hx, hz, yaw)
	for y := max(minY, hudRows); y <= min(maxY, h-2); y++ {
		for x := max(minX, 0); x <= min(maxX, w-1); x++ {
			local := inv.Rotate(proj.ToWorld(x, y).Sub(mgl64.Vec3{pos.X(), 0, pos.Z()}))
			if math.Abs(local.X()) > hx || math.Abs(local.Z()) > hz {
				continue
			}
			switch {
			case local.Z() > hz*0.6:
				// Rear band carries the shared brake material
				c.Set(x, y, '▀', snap.Brake.Color)
				c.SetBg(x, y, snap.Brake.Emissive)
			case local.Z() < -hz*0.6:
				c.Set(x, y, '▄', colorHeadlight)
			case math.Abs(local.Z()) < hz*0.3:
				c.Set(x, y, '█', colorCabin)
			default:
				c.Set(x, y, '█', colorBody)
			}
		}
	}

	// Front wheels show steer direction
	for i, wheel := range snap.Wheels {
		if !visual.WheelSlot(i).Front() {
			continue
		}
		world := pos.Add(snap.Rotation.Rotate(wheel.Position))
		x, y := proj.ToScreen(world)
		if y >= hudRows && y < h-1 {
			c.Set(x, y, steerGlyph(wheel.Yaw), colorText)
		}
	}
}

func (r *Renderer) drawBeam(proj Projection, from, to mgl64.Vec3) {
	c := r.canvas
	_, h := c.Size()
	const samples = 24
	for i := 4; i <= samples; i++ {
		p := vmath.LerpVec(from, to, float64(i)/samples)
		x, y := proj.ToScreen(p)
		if y < hudRows || y >= h-1 {
			continue
		}
		if cell := c.At(x, y); cell.Rune == ' ' || cell.Rune == '·' || cell.Rune == '+' {
			c.SetBg(x, y, colorBeam)
		}
	}
}

func steerGlyph(yaw float64) rune {
	switch {
	case yaw > 0.15:
		return '\\'
	case yaw < -0.15:
		return '/'
	}
	return '|'
}

func (r *Renderer) drawHUD(snap engine.Snapshot) {
	c := r.canvas
	w, h := c.Size()
	for x := 0; x < w; x++ {
		c.SetBg(x, 0, colorGrid)
	}

	speed := math.Abs(snap.Visual.ForwardSpeed) * 3.6
	x := c.Text(1, 0, fmt.Sprintf("%5.1f km/h", speed), colorHUD, true)

	phase := "DRIVE"
	phaseColor := colorObstacle
	if snap.Visual.Phase == vehicle.PhaseLocked {
		phase = "LOCKED"
		phaseColor = colorWarning
	}
	if snap.Paused {
		phase = "PAUSED"
		phaseColor = colorHeadlight
	}
	x = c.Text(x+2, 0, phase, phaseColor, true)
	x = c.Text(x+2, 0, fmt.Sprintf("respawns %d", snap.Stats.Respawns), colorText, false)
	x = c.Text(x+2, 0, fmt.Sprintf("%s %.0f", snap.Model, snap.Tuning.EngineForce), colorDim, false)
	x = c.Text(x+2, 0, fmt.Sprintf("dist %.0fm", snap.Stats.Distance), colorDim, false)
	if snap.Muted {
		c.Text(x+2, 0, "muted", colorDim, false)
	}

	c.Text(0, h-1, helpText, colorDim, false)
}
