package shader

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidShader is returned when a shader source cannot be turned into a compute stage.
var ErrInvalidShader = errors.New("invalid shader")

// BindingType identifies how a compute stage accesses a bound buffer.
type BindingType int

const (
	// BindingTypeUniform is a read-only uniform buffer (var<uniform>).
	BindingTypeUniform BindingType = iota

	// BindingTypeStorage is a read-write storage buffer (var<storage, read_write>).
	BindingTypeStorage

	// BindingTypeReadOnlyStorage is a read-only storage buffer (var<storage, read>).
	BindingTypeReadOnlyStorage
)

// String returns the WGSL address space spelling for the binding type.
func (t BindingType) String() string {
	switch t {
	case BindingTypeUniform:
		return "uniform"
	case BindingTypeStorage:
		return "storage, read_write"
	case BindingTypeReadOnlyStorage:
		return "storage, read"
	default:
		return fmt.Sprintf("BindingType(%d)", int(t))
	}
}

// BindingLayout describes one @group(0) binding of a compute stage.
type BindingLayout struct {
	// Binding is the @binding index.
	Binding int

	// Type is the buffer access mode.
	Type BindingType

	// VarName is the WGSL variable name, kept for debugging.
	VarName string

	// TypeName is the WGSL type of the variable (e.g. "LightSet").
	TypeName string
}

// shader is the implementation of the Shader interface.
type shader struct {
	key           string
	source        string
	entryPoint    string
	workGroupSize [3]uint32
	bindings      []BindingLayout

	pp PreProcessor
}

// Shader defines the interface for a pre-processed WGSL compute shader. It exposes the
// shader's unique key, processed source, entry point, workgroup size and the bind group
// layout derived from its @oxy:group declarations.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// EntryPoint returns the @compute entry point name.
	//
	// Returns:
	//   - string: the entry point name (e.g. "main")
	EntryPoint() string

	// WorkgroupSize returns the @workgroup_size dimensions, [1, 1, 1] when not specified.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Bindings returns the @group(0) binding layout sorted by binding index.
	//
	// Returns:
	//   - []BindingLayout: the binding layout
	Bindings() []BindingLayout

	// Declarations returns the raw @oxy:group annotations parsed from the source.
	//
	// Returns:
	//   - []Annotation: the binding declarations in source order
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader pre-processes the given WGSL compute source and extracts its entry point,
// workgroup size and binding layout.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - source: the raw WGSL source, usually embedded from a .wgsl asset
//   - constants: values for ${name} placeholders in the source
//
// Returns:
//   - Shader: the processed shader
//   - error: ErrInvalidShader (wrapped) when the source cannot be processed
func NewShader(key string, source string, constants map[string]string) (Shader, error) {
	s := &shader{
		key: key,
		pp:  NewPreProcessor(constants),
	}
	processed, err := s.pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidShader, key, err)
	}
	s.source = processed
	s.entryPoint = parseEntryPoint(processed)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("%w: %s: no @compute entry point", ErrInvalidShader, key)
	}
	s.workGroupSize = parseWorkgroupSize(processed)

	seen := make(map[int]bool)
	for _, d := range s.pp.Declarations() {
		if *d.Group != 0 {
			return nil, fmt.Errorf("%w: %s: line %d: only @group(0) is supported", ErrInvalidShader, key, d.Line)
		}
		if seen[*d.Binding] {
			return nil, fmt.Errorf("%w: %s: line %d: duplicate binding %d", ErrInvalidShader, key, d.Line, *d.Binding)
		}
		seen[*d.Binding] = true

		var bt BindingType
		switch d.Args[0] {
		case annotationArgStorageTypeUniform:
			bt = BindingTypeUniform
		case annotationArgStorageTypeRead:
			bt = BindingTypeReadOnlyStorage
		default:
			bt = BindingTypeStorage
		}
		s.bindings = append(s.bindings, BindingLayout{
			Binding:  *d.Binding,
			Type:     bt,
			VarName:  string(d.Args[1]),
			TypeName: s.typeName(d.Args[2]),
		})
	}
	sort.Slice(s.bindings, func(i, j int) bool { return s.bindings[i].Binding < s.bindings[j].Binding })
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) Bindings() []BindingLayout {
	return s.bindings
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}

func (s *shader) typeName(arg AnnotationArg) string {
	if pp, ok := s.pp.(*preProcessor); ok {
		return pp.structRegistry[arg].Type
	}
	return string(arg)
}
