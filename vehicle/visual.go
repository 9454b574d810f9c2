package vehicle

// VisualState is derived each tick for the wheel rig, lights and HUD
type VisualState struct {
	// SteerAngle is the smoothed front pivot yaw, radians
	SteerAngle float64
	// WheelSpinDelta is this tick's tire rotation increment
	WheelSpinDelta float64
	// WheelSpin accumulates WheelSpinDelta without wrapping
	WheelSpin float64
	// BrakeIntensity is 1 while braking, else 0
	BrakeIntensity float64
	// ForwardSpeed is velocity projected on the heading; negative when driving forward
	ForwardSpeed float64
	Phase        Phase
}
