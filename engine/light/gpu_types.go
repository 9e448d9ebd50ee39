package light

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// LightSetHeaderSize is the byte size of the light set header (numLights u32 + 12 pad bytes).
	// The first light record starts at this offset because the runtime array is 16-byte aligned.
	LightSetHeaderSize = 16

	// LightStride is the byte stride of one Light record in the light set buffer.
	LightStride = 32
)

// GPULight is the GPU-aligned representation of a single point light.
// Matches the WGSL Light struct layout exactly (shader.GPULightSource).
// Size: 32 bytes (vec3f members are 16-byte aligned).
type GPULight struct {
	Position [3]float32 // offset  0: world-space position (vec3f)
	_pad0    float32    // offset 12: padding
	Color    [3]float32 // offset 16: linear RGB, intensity already applied (vec3f)
	_pad1    float32    // offset 28: padding to 32 bytes
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, LightStride)
	putVec3(buf[0:], g.Position)
	putVec3(buf[16:], g.Color)
	return buf
}

// Unmarshal decodes a single 32-byte light record.
//
// Parameters:
//   - buf: at least LightStride bytes
func (g *GPULight) Unmarshal(buf []byte) {
	g.Position = getVec3(buf[0:])
	g.Color = getVec3(buf[16:])
}

// GPULightSetHeader is the header at the start of the light set buffer.
// Matches the leading numLights member of the WGSL LightSet struct plus its alignment padding.
// Size: 16 bytes.
type GPULightSetHeader struct {
	NumLights uint32    // offset 0: active light count
	_pad      [3]uint32 // offset 4: padding to the 16-byte aligned light array
}

// Size returns the size of the GPULightSetHeader struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (h *GPULightSetHeader) Size() int {
	return int(unsafe.Sizeof(*h))
}

// Marshal serializes the header into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (h *GPULightSetHeader) Marshal() []byte {
	buf := make([]byte, LightSetHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.NumLights)
	return buf
}

// LightSetSize returns the byte size of a light set buffer holding capacity records.
func LightSetSize(capacity uint32) uint64 {
	return LightSetHeaderSize + uint64(capacity)*LightStride
}

// LightOffset returns the byte offset of light record i in the light set buffer.
func LightOffset(i uint32) uint64 {
	return LightSetHeaderSize + uint64(i)*LightStride
}

// MarshalLightSet serializes a complete light set buffer: header followed by every record.
//
// Parameters:
//   - numLights: the active count written into the header
//   - lights: the light records, one per slot of capacity
//
// Returns:
//   - []byte: the buffer contents
func MarshalLightSet(numLights uint32, lights []GPULight) []byte {
	buf := make([]byte, LightSetSize(uint32(len(lights))))
	binary.LittleEndian.PutUint32(buf[0:4], numLights)
	for i := range lights {
		off := LightOffset(uint32(i))
		putVec3(buf[off:], lights[i].Position)
		putVec3(buf[off+16:], lights[i].Color)
	}
	return buf
}

// ReadNumLights returns the active count stored in a light set buffer header.
func ReadNumLights(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[0:4])
}

// RecordCount returns how many complete light records fit in a light set buffer.
func RecordCount(buf []byte) uint32 {
	if len(buf) < LightSetHeaderSize {
		return 0
	}
	return uint32((len(buf) - LightSetHeaderSize) / LightStride)
}

// ReadLightPosition decodes the position of light i from a light set buffer.
func ReadLightPosition(buf []byte, i uint32) mgl32.Vec3 {
	return mgl32.Vec3(getVec3(buf[LightOffset(i):]))
}

// WriteLightPosition encodes the position of light i into a light set buffer, leaving
// its color untouched.
func WriteLightPosition(buf []byte, i uint32, p mgl32.Vec3) {
	putVec3(buf[LightOffset(i):], p)
}

func putVec3(buf []byte, v [3]float32) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
}

func getVec3(buf []byte) [3]float32 {
	return [3]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])),
		math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12])),
	}
}
