// annotations.go defines the annotation types, argument constants, and parser for the
// Oxy WGSL shader pre-processor. Annotations are single-line WGSL comments prefixed
// with @oxy: that drive struct injection and bind group declaration. The parsed results
// are stored as Annotation values and consumed by the PreProcessor, which hands the
// binding declarations on to the pipeline so bind group layouts never have to be
// written twice.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct definition
	// into the shader at the annotation site. This annotation does not produce a
	// declaration and is consumed entirely during pre-processing.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include light_set
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable declaration
	// and appends an Annotation to the PreProcessor's declarations list.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 2 storage_uniform camera camera
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed (include or group).
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = struct type key (e.g. "light")
	//   - group:    [0] = address space, [1] = var name, [2] = WGSL type key
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source where this annotation
	// was found. Used for error reporting.
	Line int

	// Group is the @group index for group annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group annotations. Nil for include annotations.
	Binding *int
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────
// These identify registered WGSL types. They can appear in @oxy:include annotations
// (to inject the struct source) and in @oxy:group annotations (as the type field).

const (
	// AnnotationArgCamera identifies the CameraUniforms struct.
	// Source: engine/renderer/shader/assets/camera.wgsl
	AnnotationArgCamera AnnotationArg = "camera"

	// AnnotationArgLight identifies the Light struct for per-light GPU data.
	// Source: engine/renderer/shader/assets/light.wgsl
	AnnotationArgLight AnnotationArg = "light"

	// AnnotationArgLightSet identifies the LightSet struct (count header + runtime light array).
	// Source: engine/renderer/shader/assets/light_set.wgsl
	AnnotationArgLightSet AnnotationArg = "light_set"

	// AnnotationArgCluster identifies the Cluster record struct. Requires the
	// maxLightsPerCluster constant.
	// Source: engine/renderer/shader/assets/cluster.wgsl
	AnnotationArgCluster AnnotationArg = "cluster"

	// AnnotationArgClusterSet identifies the ClusterSet struct (count header + runtime cluster array).
	// Source: engine/renderer/shader/assets/cluster_set.wgsl
	AnnotationArgClusterSet AnnotationArg = "cluster_set"

	// AnnotationArgTime identifies the scalar f32 time uniform. It has no struct source.
	AnnotationArgTime AnnotationArg = "time"
)

// ── Address space arguments ────────────────────────────────────────────────────

const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read> in WGSL.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"

	// annotationArgStorageTypeReadWrite maps to var<storage, read_write> in WGSL.
	annotationArgStorageTypeReadWrite AnnotationArg = "storage_read_write"
)

// validStructTypes lists all AnnotationArg values that are accepted as struct type
// arguments in @oxy:include and @oxy:group annotations. Each entry must have a
// corresponding registryEntry in the PreProcessor's structRegistry.
var validStructTypes = []AnnotationArg{
	AnnotationArgCamera,
	AnnotationArgLight,
	AnnotationArgLightSet,
	AnnotationArgCluster,
	AnnotationArgClusterSet,
	AnnotationArgTime,
}

// validAddressSpaces lists all AnnotationArg values that are accepted as address
// space arguments in @oxy:group annotations.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
	annotationArgStorageTypeReadWrite,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires exactly five arguments (group, binding, address space, var name, type)", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q in @oxy group annotation: %w", lineNum, args[1], err)
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @oxy group annotation: %w", lineNum, args[2], err)
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[5])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy group annotation", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
