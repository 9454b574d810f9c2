package parameter

// Drive tuning defaults, exposed through the control surface
const (
	// EngineForceDefault is the throttle magnitude (impulse per tick or force gain)
	EngineForceDefault = 70.0
	// EngineForceMin and EngineForceMax bound the acceleration slider
	EngineForceMin = 5.0
	EngineForceMax = 200.0

	// DragCoefficientDefault is linear damping while coasting ("air resistance")
	DragCoefficientDefault = 1.0

	// BrakeDragCoefficientDefault is linear damping while the brake is held
	BrakeDragCoefficientDefault = 6.0

	// DragSpeedFactorDefault scales additional damping with horizontal speed
	DragSpeedFactorDefault = 0.0

	// MaxSpeedDefault caps horizontal speed in units/s
	MaxSpeedDefault = 40.0
	// MaxSpeedMin is the clamp floor for accepted configuration
	MaxSpeedMin = 0.5

	// SteeringRateDefault is the yaw rate in rad/s while a steer key is held
	SteeringRateDefault = 3.0

	// DampingMax bounds accepted drag and brake coefficients
	DampingMax = 100.0
	// SteeringRateMax bounds accepted steering rate
	SteeringRateMax = 20.0
	// MaxSpeedCeiling bounds accepted speed limit
	MaxSpeedCeiling = 500.0
)

// Proportional drive
const (
	// ReversalGain multiplies correction force when desired and current speed oppose
	ReversalGain = 3.0
)

// Visual derivation
const (
	// MaxSteerVisual is the front-wheel pivot angle at full lock, radians
	MaxSteerVisual = 0.5

	// SteerVisualRate is the exponential approach rate of the visual steer angle, 1/s
	SteerVisualRate = 10.0

	// WheelSpinGain converts forward speed to tire rotation
	WheelSpinGain = 2.5
)

// Chassis body
const (
	VehicleMass           = 50.0
	VehicleFriction       = 1.5
	VehicleLinearDamping  = 1.0
	VehicleAngularDamping = 0.5

	// Collider half extents; the box bottom sits at wheel contact
	VehicleHalfWidth  = 0.8
	VehicleHalfHeight = 0.55
	VehicleHalfLength = 1.3
)

// Wheel mount offsets in body space
var (
	WheelFrontLeft  = [3]float64{-0.7, -0.2, -0.8}
	WheelFrontRight = [3]float64{0.7, -0.2, -0.8}
	WheelRearLeft   = [3]float64{-0.7, -0.2, 1.0}
	WheelRearRight  = [3]float64{0.7, -0.2, 1.0}
)

// Headlight aim points in body space
var (
	HeadlightTargetLeft  = [3]float64{-0.6, -0.5, -10}
	HeadlightTargetRight = [3]float64{0.6, -0.5, -10}
)

// Brake light material, RGB hex
const (
	BrakeColorOff     = 0x550000
	BrakeColorOn      = 0xff0000
	BrakeEmissiveOff  = 0x000000
	BrakeEmissiveOn   = 0xff0000
	BrakeIntensityOff = 0.0
	BrakeIntensityOn  = 2.0
)
