package shader

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `//@oxy:include light
//@oxy:include light_set
//@oxy:include camera

//@oxy:group 0 2 storage_uniform camera camera
//@oxy:group 0 0 storage_read_write lightSet light_set
//@oxy:group 0 1 storage_uniform time time

const scale = ${scale};

@compute
@workgroup_size(${wgSize}, 2)
fn main(@builtin(global_invocation_id) globalIdx: vec3u) {
    lightSet.lights[globalIdx.x].pos *= scale * time;
}
`

func TestNewShader(t *testing.T) {
	s, err := NewShader("test", testSource, map[string]string{"scale": F32(2), "wgSize": "64"})
	require.NoError(t, err)

	assert.Equal(t, "test", s.Key())
	assert.Equal(t, "main", s.EntryPoint())
	assert.Equal(t, [3]uint32{64, 2, 1}, s.WorkgroupSize())
	assert.Equal(t, []BindingLayout{
		{Binding: 0, Type: BindingTypeStorage, VarName: "lightSet", TypeName: "LightSet"},
		{Binding: 1, Type: BindingTypeUniform, VarName: "time", TypeName: "f32"},
		{Binding: 2, Type: BindingTypeUniform, VarName: "camera", TypeName: "CameraUniforms"},
	}, s.Bindings())
	assert.Len(t, s.Declarations(), 3)

	src := s.Source()
	assert.Contains(t, src, "struct Light {")
	assert.Contains(t, src, "struct LightSet {")
	assert.Contains(t, src, "struct CameraUniforms {")
	assert.Contains(t, src, "@group(0) @binding(0) var<storage, read_write> lightSet: LightSet;")
	assert.Contains(t, src, "@group(0) @binding(1) var<uniform> time: f32;")
	assert.Contains(t, src, "@group(0) @binding(2) var<uniform> camera: CameraUniforms;")
	assert.Contains(t, src, "const scale = 2.0;")
	assert.NotContains(t, src, "@oxy:")
	assert.NotContains(t, src, "${")
}

func TestNewShader_Errors(t *testing.T) {
	entry := "\n@compute @workgroup_size(1)\nfn main() {}\n"
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unresolved constant", "const x = ${missing};" + entry, "missing"},
		{"unknown struct", "//@oxy:include material" + entry, "unknown struct type"},
		{"unknown address space", "//@oxy:group 0 0 storage_write x light_set" + entry, "unknown address space"},
		{"short group", "//@oxy:group 0 0 storage_read x" + entry, "five arguments"},
		{"bad binding", "//@oxy:group 0 b storage_read x light_set" + entry, "invalid binding"},
		{"non-zero group", "//@oxy:group 1 0 storage_read x light_set" + entry, "only @group(0)"},
		{"duplicate binding", "//@oxy:group 0 0 storage_read x light_set\n//@oxy:group 0 0 storage_read y light_set" + entry, "duplicate binding"},
		{"no entry point", "fn main() {}", "no @compute entry point"},
		{"unknown annotation", "//@oxy:texture 0" + entry, "unknown @oxy annotation type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShader(tt.name, tt.source, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidShader))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPreProcessor_ClusterConstant(t *testing.T) {
	pp := NewPreProcessor(map[string]string{"maxLightsPerCluster": U32(256)})
	out, err := pp.Process("//@oxy:include cluster\n//@oxy:include cluster_set")
	require.NoError(t, err)
	assert.Contains(t, out, "lightIndices: array<u32, 256u>,")
	assert.Contains(t, out, "clusters: array<Cluster>,")
	assert.Empty(t, pp.Declarations())
}

func TestPreProcessor_DeclarationsResetPerProcess(t *testing.T) {
	pp := NewPreProcessor(nil)
	_, err := pp.Process("//@oxy:group 0 0 storage_read a light_set\n//@oxy:group 0 1 storage_read b light_set")
	require.NoError(t, err)
	require.Len(t, pp.Declarations(), 2)

	_, err = pp.Process("//@oxy:group 0 3 storage_uniform c camera")
	require.NoError(t, err)
	require.Len(t, pp.Declarations(), 1)
	assert.Equal(t, 3, *pp.Declarations()[0].Binding)
}

func TestParseWorkgroupSize_IgnoresComments(t *testing.T) {
	src := "// @workgroup_size(999)\n/* @workgroup_size(7) */\n@compute @workgroup_size(4, 4, 4)\nfn main() {}"
	assert.Equal(t, [3]uint32{4, 4, 4}, parseWorkgroupSize(src))
	assert.Equal(t, [3]uint32{1, 1, 1}, parseWorkgroupSize("fn main() {}"))
	assert.Equal(t, "main", parseEntryPoint(src))
}

func TestConstants(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{2, "2.0"},
		{-10, "-10.0"},
		{1.5, "1.5"},
		{0.1, "0.1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, F32(tt.in))
	}
	assert.Equal(t, "256u", U32(256))
	assert.True(t, strings.HasSuffix(U32(0), "u"))
}
