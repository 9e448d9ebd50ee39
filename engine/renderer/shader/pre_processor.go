// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader
// source code for @oxy: annotations, replaces them with generated WGSL declarations
// or injected struct source, substitutes ${name} constants, and collects a declarations
// list the pipeline uses to build its bind group layout.
package shader

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
)

var (
	//go:embed assets/camera.wgsl
	GPUCameraUniformsSource string

	//go:embed assets/light.wgsl
	GPULightSource string

	//go:embed assets/light_set.wgsl
	GPULightSetSource string

	//go:embed assets/cluster.wgsl
	GPUClusterSource string

	//go:embed assets/cluster_set.wgsl
	GPUClusterSetSource string
)

// constantRegex matches ${name} placeholders in WGSL source.
var constantRegex = regexp.MustCompile(`\$\{(\w+)\}`)

// registryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file)
// with the resolved WGSL type name used in generated @group/@binding declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations (e.g. "CameraUniforms", "LightSet").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// structRegistry maps struct type argument keys to their embedded WGSL source and type name.
	structRegistry map[AnnotationArg]registryEntry

	// addressSpaceRegistry maps address space argument keys to WGSL var<> syntax strings.
	addressSpaceRegistry map[AnnotationArg]string

	// constants holds the ${name} substitutions applied after annotation expansion.
	constants map[string]string

	// declarations accumulates annotations of type AnnotationTypeBindingGroup during a
	// Process call. Reset at the start of each Process invocation.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations and
// ${name} constants, replacing them with generated declarations, injected struct sources
// and constant values while collecting a declarations list for the pipeline.
type PreProcessor interface {
	// Process takes raw WGSL shader source code and pre-processes it. @oxy:include
	// annotations are replaced with embedded struct source text, @oxy:group annotations
	// with generated @group/@binding variable declarations, and every ${name} placeholder
	// with its constant value.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code
	//
	// Returns:
	//   - string: the processed WGSL shader source code
	//   - error: an error if any annotation is malformed, references an unknown type, or a
	//     placeholder has no constant
	Process(source string) (string, error)

	// Declarations returns the AnnotationTypeBindingGroup annotations collected during the
	// most recent call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with all registered struct types and
// address space mappings pre-populated.
//
// Parameters:
//   - constants: values substituted for ${name} placeholders; may be nil
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(constants map[string]string) PreProcessor {
	c := make(map[string]string, len(constants))
	for k, v := range constants {
		c[k] = v
	}
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgCamera:     {Source: GPUCameraUniformsSource, Type: "CameraUniforms"},
			AnnotationArgLight:      {Source: GPULightSource, Type: "Light"},
			AnnotationArgLightSet:   {Source: GPULightSetSource, Type: "LightSet"},
			AnnotationArgCluster:    {Source: GPUClusterSource, Type: "Cluster"},
			AnnotationArgClusterSet: {Source: GPUClusterSetSource, Type: "ClusterSet"},
			AnnotationArgTime:       {Type: "f32"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform:   "var<uniform>",
			annotationArgStorageTypeRead:      "var<storage, read>",
			annotationArgStorageTypeReadWrite: "var<storage, read_write>",
		},
		constants: c,
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry := p.structRegistry[a.Args[0]]
			out = append(out, strings.TrimRight(entry.Source, "\n"))
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			entry := p.structRegistry[a.Args[2]]
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}

	var missing []string
	processed := constantRegex.ReplaceAllStringFunc(strings.Join(out, "\n"), func(m string) string {
		name := constantRegex.FindStringSubmatch(m)[1]
		v, ok := p.constants[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved shader constants: %s", strings.Join(missing, ", "))
	}
	return processed, nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
