package visual

import (
	"github.com/lixenwraith/vi-drive/parameter"
	"github.com/lixenwraith/vi-drive/vmath"
)

// RGB is a packed 0xRRGGBB color
type RGB uint32

func (c RGB) channels() (r, g, b float64) {
	return float64(c >> 16 & 0xff), float64(c >> 8 & 0xff), float64(c & 0xff)
}

// LerpRGB blends a→b per channel; t is clamped to [0,1]
func LerpRGB(a, b RGB, t float64) RGB {
	t = vmath.Clamp(t, 0, 1)
	ar, ag, ab := a.channels()
	br, bg, bb := b.channels()
	pack := func(x, y float64) RGB {
		return RGB(vmath.Lerp(x, y, t) + 0.5)
	}
	return pack(ar, br)<<16 | pack(ag, bg)<<8 | pack(ab, bb)
}

// Material is a shared surface description
type Material struct {
	Color             RGB
	Emissive          RGB
	EmissiveIntensity float64
}

// BrakeMaterial is the tail-light surface; one instance serves both lamps
type BrakeMaterial struct {
	Material
	intensity float64
}

// NewBrakeMaterial creates the material in its off state
func NewBrakeMaterial() *BrakeMaterial {
	m := &BrakeMaterial{}
	m.Apply(0)
	return m
}

// Apply blends between off and on looks by intensity in [0,1]
func (m *BrakeMaterial) Apply(intensity float64) {
	intensity = vmath.Clamp(intensity, 0, 1)
	m.intensity = intensity
	m.Color = LerpRGB(parameter.BrakeColorOff, parameter.BrakeColorOn, intensity)
	m.Emissive = LerpRGB(parameter.BrakeEmissiveOff, parameter.BrakeEmissiveOn, intensity)
	m.EmissiveIntensity = vmath.Lerp(parameter.BrakeIntensityOff, parameter.BrakeIntensityOn, intensity)
}

// Intensity returns the last applied intensity
func (m *BrakeMaterial) Intensity() float64 {
	return m.intensity
}

// TailLights reference the shared brake material
type TailLights struct {
	Left, Right *Material
}

// NewTailLights points both lamps at m
func NewTailLights(m *BrakeMaterial) TailLights {
	return TailLights{Left: &m.Material, Right: &m.Material}
}
