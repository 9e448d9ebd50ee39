package camera

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// UniformBinding is the binding index of the camera uniform buffer on the camera's provider.
const UniformBinding = 0

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

// uniformLayout is the single-binding layout of the camera provider.
var uniformLayout = []shader.BindingLayout{
	{Binding: UniformBinding, Type: shader.BindingTypeUniform, VarName: "camera", TypeName: "CameraUniforms"},
}

type cameraImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3
	up       mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix              mgl32.Mat4
	projectionMatrix        mgl32.Mat4
	viewProjectionMatrix    mgl32.Mat4
	inverseProjectionMatrix mgl32.Mat4

	controller        CameraController
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and computes view/projection matrices from its
// position and target, which an attached CameraController may drive via Update(). The
// camera looks down -Z in view space and projects depth to [0, 1].
type Camera interface {
	// Position returns the camera's world-space position.
	Position() mgl32.Vec3

	// Target returns the look-at point.
	Target() mgl32.Vec3

	// Up returns the camera's up vector.
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the current world to view matrix.
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current projection matrix.
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns the current combined view-projection matrix.
	ViewProjectionMatrix() mgl32.Mat4

	// InverseProjectionMatrix returns the inverse of the current projection matrix. Used by
	// the clustering stage to unproject cluster corners from NDC into view space.
	InverseProjectionMatrix() mgl32.Mat4

	// Uniforms returns the GPU uniform block for the current matrices.
	//
	// Returns:
	//   - GPUCameraUniforms: the uniform block ready to Marshal
	Uniforms() GPUCameraUniforms

	// Controller returns the attached CameraController, or nil.
	Controller() CameraController

	// BindGroupProvider returns the camera's bind group provider. Binding 0 holds the uniform
	// buffer once Init has run.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Update reads position/target from the controller and recomputes matrices.
	// Should be called once per frame. Does nothing without a controller.
	Update()

	// SetPosition sets the world-space position and recomputes matrices.
	SetPosition(p mgl32.Vec3)

	// SetTarget sets the look-at point and recomputes matrices.
	SetTarget(t mgl32.Vec3)

	// SetFov sets the field of view in radians and recomputes matrices.
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes matrices.
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	SetFar(far float32)

	// SetController attaches a CameraController to the camera.
	SetController(ctrl CameraController)

	// Init creates the camera uniform buffer on the given renderer and uploads the current matrices.
	//
	// Parameters:
	//   - r: the renderer owning the buffer
	//
	// Returns:
	//   - error: an error if the buffer could not be created
	Init(r renderer.Renderer) error

	// Flush uploads the current matrices to the uniform buffer.
	//
	// Parameters:
	//   - r: the renderer the camera was initialized on
	Flush(r renderer.Renderer)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera. Without options it sits at the origin looking down -Z
// with a 45° field of view, aspect 1 and planes at 0.1 and 100.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
//   - error: common.ErrInvalidConfiguration (wrapped) for a non-positive field of view or
//     aspect, or planes that do not satisfy 0 < near < far
func NewCamera(options ...CameraBuilderOption) (Camera, error) {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: mgl32.Vec3{0, 0, 0},
		target:   mgl32.Vec3{0, 0, -1},
		up:       mgl32.Vec3{0, 1, 0},
		fov:      45.0 * (math.Pi / 180.0), // radians
		aspect:   1.0,
		near:     0.1,
		far:      100.0,
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(
			"camera_" + strconv.FormatUint(cameraCount.Add(1)-1, 10),
		),
	}
	for _, option := range options {
		option(c)
	}
	if c.fov <= 0 || c.fov >= math.Pi || c.aspect <= 0 {
		return nil, fmt.Errorf("camera fov %v / aspect %v: %w", c.fov, c.aspect, common.ErrInvalidConfiguration)
	}
	if c.near <= 0 || c.far <= c.near {
		return nil, fmt.Errorf("camera planes near %v far %v: %w", c.near, c.far, common.ErrInvalidConfiguration)
	}
	if c.controller != nil {
		c.position = c.controller.Position()
		c.target = c.controller.Target()
	}
	c.updateMatrices()
	return c, nil
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) InverseProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseProjectionMatrix
}

func (c *cameraImpl) Uniforms() GPUCameraUniforms {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniforms{
		ViewProj: c.viewProjectionMatrix,
		View:     c.viewMatrix,
		InvProj:  c.inverseProjectionMatrix,
		Near:     c.near,
		Far:      c.far,
	}
}

func (c *cameraImpl) SetPosition(p mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
	c.updateMatrices()
}

func (c *cameraImpl) SetTarget(t mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = t
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	c.position = c.controller.Position()
	c.target = c.controller.Target()
	c.updateMatrices()
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroupProvider
}

func (c *cameraImpl) Init(r renderer.Renderer) error {
	u := c.Uniforms()
	if err := r.InitBindGroup(c.BindGroupProvider(), uniformLayout, map[int]uint64{UniformBinding: uint64(u.Size())}); err != nil {
		return fmt.Errorf("camera uniform buffer: %w", err)
	}
	c.Flush(r)
	return nil
}

func (c *cameraImpl) Flush(r renderer.Renderer) {
	u := c.Uniforms()
	r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: c.BindGroupProvider(),
		Binding:  UniformBinding,
		Offset:   0,
		Data:     u.Marshal(),
	}})
}

// updateMatrices recalculates the view, projection, view-projection, and inverse projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = mgl32.LookAtV(c.position, c.target, c.up)
	c.projectionMatrix = common.PerspectiveZO(c.fov, c.aspect, c.near, c.far)
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
	c.inverseProjectionMatrix = c.projectionMatrix.Inv()
}
