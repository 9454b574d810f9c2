package visual

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/lixenwraith/vi-drive/parameter"
)

// HeadlightTargets returns the world-space aim points of both headlights
func HeadlightTargets(pos mgl64.Vec3, rot mgl64.Quat) [2]mgl64.Vec3 {
	return [2]mgl64.Vec3{
		pos.Add(rot.Rotate(mgl64.Vec3(parameter.HeadlightTargetLeft))),
		pos.Add(rot.Rotate(mgl64.Vec3(parameter.HeadlightTargetRight))),
	}
}
