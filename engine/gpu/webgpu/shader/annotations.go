// annotations.go defines the @oxy: comment annotations understood by the pre-processor.
// Annotations are single-line WGSL comments. They inject shared snippets and tell the
// backend which argument table slot feeds each binding, so bind groups are built from
// declarations instead of variable names.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix marks an annotation inside a WGSL line comment.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered snippet at the annotation site.
	//
	// Syntax: //@oxy:include <snippet>
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeArgument binds the declaration below it to an argument table slot.
	// The WGSL declaration stays hand-written.
	//
	// Syntax:
	//   //@oxy:argument <group> <binding> texture <index>
	//   //@oxy:argument <group> <binding> sampler
	//   //@oxy:argument <group> <binding> params
	AnnotationTypeArgument AnnotationType = "argument"
)

// Annotation is one parsed @oxy: annotation.
type Annotation struct {
	Type AnnotationType

	// Args depend on Type:
	//   - include:  [0] = snippet key
	//   - argument: [0] = argument kind, [1] = texture index for AnnotationArgTexture
	Args []AnnotationArg

	// Line is the 1-based source line, used in errors.
	Line int

	// Group and Binding are set for argument annotations.
	Group   *int
	Binding *int
}

// TextureIndex returns the argument table index of a texture argument.
//
// Returns:
//   - int: the texture index
//   - bool: false if the annotation is not a texture argument
func (a Annotation) TextureIndex() (int, bool) {
	if a.Type != AnnotationTypeArgument || len(a.Args) != 2 || a.Args[0] != AnnotationArgTexture {
		return 0, false
	}
	i, err := strconv.Atoi(string(a.Args[1]))
	if err != nil {
		return 0, false
	}
	return i, true
}

// AnnotationArg is an annotation argument keyword.
type AnnotationArg string

// Snippet keys, each backed by an embedded file under assets/.
const (
	// AnnotationArgPlaneVertex declares PlaneVertex and PlaneFragment for the image plane quad.
	AnnotationArgPlaneVertex AnnotationArg = "plane_vertex"

	// AnnotationArgYCbCr declares ycbcrToRGB.
	AnnotationArgYCbCr AnnotationArg = "ycbcr"
)

// Argument kinds.
const (
	// AnnotationArgTexture is a texture bound with SetTexture or SetFragmentTexture.
	AnnotationArgTexture AnnotationArg = "texture"

	// AnnotationArgSampler is the backend's clamp-to-edge linear sampler.
	AnnotationArgSampler AnnotationArg = "sampler"

	// AnnotationArgParams is a uniform buffer owned by the encoding kernel.
	AnnotationArgParams AnnotationArg = "params"
)

var validSnippets = []AnnotationArg{
	AnnotationArgPlaneVertex,
	AnnotationArgYCbCr,
}

var validArgumentKinds = []AnnotationArg{
	AnnotationArgTexture,
	AnnotationArgSampler,
	AnnotationArgParams,
}

// maxTextureIndex bounds texture argument indices.
const maxTextureIndex = 7

// parseAnnotation parses one source line. Lines without the prefix return nil and no error.
//
// Parameters:
//   - line: the raw WGSL source line
//   - lineNum: the 1-based line number for errors
//
// Returns:
//   - *Annotation: the annotation, or nil if the line is not one
//   - error: error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validSnippets, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown snippet %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case AnnotationTypeArgument:
		if len(args) < 4 || len(args) > 5 {
			return nil, fmt.Errorf("line %d: @oxy argument annotation requires group, binding, kind and an optional index", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil || group < 0 {
			return nil, fmt.Errorf("line %d: invalid group number %q in @oxy argument annotation", lineNum, args[1])
		}
		binding, err := strconv.Atoi(args[2])
		if err != nil || binding < 0 {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @oxy argument annotation", lineNum, args[2])
		}
		kind := AnnotationArg(args[3])
		if !slices.Contains(validArgumentKinds, kind) {
			return nil, fmt.Errorf("line %d: unknown argument kind %q in @oxy argument annotation", lineNum, args[3])
		}
		a := &Annotation{
			Type:    AnnotationTypeArgument,
			Args:    []AnnotationArg{kind},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}
		if kind != AnnotationArgTexture {
			if len(args) != 4 {
				return nil, fmt.Errorf("line %d: @oxy %s argument takes no index", lineNum, kind)
			}
			return a, nil
		}
		if len(args) != 5 {
			return nil, fmt.Errorf("line %d: @oxy texture argument requires an index", lineNum)
		}
		index, err := strconv.Atoi(args[4])
		if err != nil || index < 0 || index > maxTextureIndex {
			return nil, fmt.Errorf("line %d: texture index %q out of range [0, %d]", lineNum, args[4], maxTextureIndex)
		}
		a.Args = append(a.Args, AnnotationArg(args[4]))
		return a, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
