package shader

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed assets/plane_vertex.wgsl
var planeVertexSource string

//go:embed assets/ycbcr.wgsl
var ycbcrSource string

// PreProcessor expands @oxy: annotations in WGSL source and collects argument declarations.
type PreProcessor interface {
	// Process replaces include annotations with snippet source. Argument annotations are
	// kept as comments and recorded. Declarations are reset on every call.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the processed source
	//   - error: error if an annotation is malformed or a binding is declared twice
	Process(source string) (string, error)

	// Declarations returns the argument annotations of the last Process call in source order.
	//
	// Returns:
	//   - []Annotation: the declarations
	Declarations() []Annotation
}

type preProcessor struct {
	snippets     map[AnnotationArg]string
	declarations []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a pre-processor with the built-in snippets registered.
//
// Returns:
//   - PreProcessor: the pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		snippets: map[AnnotationArg]string{
			AnnotationArgPlaneVertex: planeVertexSource,
			AnnotationArgYCbCr:       ycbcrSource,
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = nil
	included := make(map[AnnotationArg]bool)
	seen := make(map[[2]int]int)

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
			if included[a.Args[0]] {
				continue
			}
			included[a.Args[0]] = true
			out = append(out, p.snippets[a.Args[0]])
		case AnnotationTypeArgument:
			key := [2]int{*a.Group, *a.Binding}
			if prev, ok := seen[key]; ok {
				return "", fmt.Errorf("line %d: group %d binding %d already declared on line %d", i+1, key[0], key[1], prev)
			}
			seen[key] = i + 1
			p.declarations = append(p.declarations, *a)
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
