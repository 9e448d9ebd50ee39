package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3

	radius    float32
	azimuth   float32 // Horizontal angle around Y axis
	elevation float32 // Vertical angle from horizontal plane

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32
}

// CameraController owns the camera's positional state (position, target) and moves it with
// third-person orbit controls: spherical coordinates (radius, azimuth, elevation) around the
// target. The Camera reads from the controller in Update.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - mgl32.Vec3: world-space camera position
	Position() mgl32.Vec3

	// Target returns the look-at point.
	//
	// Returns:
	//   - mgl32.Vec3: world-space target position
	Target() mgl32.Vec3

	// SetTarget sets the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - t: world-space coordinates
	SetTarget(t mgl32.Vec3)

	// Zoom adjusts the camera's distance by modifying orbit radius.
	// Positive delta zooms in (closer to target).
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// OrbitLeft rotates the camera left around the target by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates the camera right around the target by one orbit speed step.
	OrbitRight()

	// OrbitUp tilts the camera upward by one orbit speed step, clamped to max elevation.
	OrbitUp()

	// OrbitDown tilts the camera downward by one orbit speed step, clamped to min elevation.
	OrbitDown()

	// Radius returns the current orbit radius (distance from target).
	Radius() float32

	// Azimuth returns the current horizontal angle around the Y axis in radians.
	Azimuth() float32

	// Elevation returns the current vertical angle from the horizontal plane in radians.
	Elevation() float32
}

var _ CameraController = &cameraControllerImpl{}

// NewOrbitController creates an orbit controller. Defaults frame the light field: radius 20
// around (0, 5, 0), a 30° elevation, looking down -Z at azimuth 0.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the controller with its position already computed
func NewOrbitController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:     &sync.Mutex{},
		target: mgl32.Vec3{0, 5, 0},

		radius:    20.0,
		azimuth:   0.0,
		elevation: float32(math.Pi / 6),

		minRadius:    2.0,
		maxRadius:    200.0,
		minElevation: float32(-math.Pi/2 + 0.1),
		maxElevation: float32(math.Pi/2 - 0.1),

		orbitSpeed: 0.03,
		zoomSpeed:  1.0,
	}

	for _, option := range options {
		option(cc)
	}

	cc.updatePosition()
	return cc
}

// updatePosition recomputes the world position from the orbit state. Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	cosElev := float32(math.Cos(float64(cc.elevation)))
	sinElev := float32(math.Sin(float64(cc.elevation)))
	cosAzim := float32(math.Cos(float64(cc.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.azimuth)))

	cc.position = cc.target.Add(mgl32.Vec3{
		cc.radius * cosElev * sinAzim,
		cc.radius * sinElev,
		cc.radius * cosElev * cosAzim,
	})
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *cameraControllerImpl) SetTarget(t mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = t
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = mgl32.Clamp(cc.radius-delta*cc.zoomSpeed, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitLeft() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth -= cc.orbitSpeed
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitRight() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += cc.orbitSpeed
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitUp() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevation = min(cc.elevation+cc.orbitSpeed, cc.maxElevation)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) OrbitDown() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.elevation = max(cc.elevation-cc.orbitSpeed, cc.minElevation)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

// CameraControllerOption is a functional option used to configure a CameraController during construction.
type CameraControllerOption func(*cameraControllerImpl)

// WithRadius sets the initial orbit radius.
func WithRadius(radius float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle in radians. Zero places the camera on +Z
// looking toward -Z.
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle in radians.
func WithElevation(elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.elevation = elevation
	}
}

// WithTarget sets the look-at/pivot point.
func WithTarget(t mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = t
	}
}

// WithOrbitSpeed sets the keyboard orbit speed in radians per step.
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the zoom speed multiplier.
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}
