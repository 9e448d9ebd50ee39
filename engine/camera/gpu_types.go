package camera

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniforms is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL CameraUniforms struct layout exactly (shader.GPUCameraUniformsSource).
// Size: 208 bytes (WGSL uniform aligned).
type GPUCameraUniforms struct {
	ViewProj mgl32.Mat4 // offset   0: combined view-projection matrix (mat4x4f)
	View     mgl32.Mat4 // offset  64: world to view matrix (mat4x4f)
	InvProj  mgl32.Mat4 // offset 128: inverse projection matrix (mat4x4f)
	Near     float32    // offset 192: near plane distance
	Far      float32    // offset 196: far plane distance
	_pad     [2]float32 // offset 200: padding to 208 bytes
}

// Size returns the size of the GPUCameraUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (208)
func (g *GPUCameraUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	putMat4(buf[0:], g.ViewProj)
	putMat4(buf[64:], g.View)
	putMat4(buf[128:], g.InvProj)
	binary.LittleEndian.PutUint32(buf[192:], math.Float32bits(g.Near))
	binary.LittleEndian.PutUint32(buf[196:], math.Float32bits(g.Far))
	return buf
}

// Unmarshal decodes a camera uniform buffer produced by Marshal. Short buffers leave the
// struct zeroed.
//
// Parameters:
//   - buf: the raw uniform bytes
func (g *GPUCameraUniforms) Unmarshal(buf []byte) {
	*g = GPUCameraUniforms{}
	if len(buf) < g.Size() {
		return
	}
	g.ViewProj = getMat4(buf[0:])
	g.View = getMat4(buf[64:])
	g.InvProj = getMat4(buf[128:])
	g.Near = math.Float32frombits(binary.LittleEndian.Uint32(buf[192:]))
	g.Far = math.Float32frombits(binary.LittleEndian.Uint32(buf[196:]))
}

func putMat4(buf []byte, m mgl32.Mat4) {
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(m[i]))
	}
}

func getMat4(buf []byte) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := range 16 {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return m
}
