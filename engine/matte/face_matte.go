package matte

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/session"
	pigo "github.com/esimov/pigo/core"
	"golang.org/x/image/draw"
)

// Face is a detected face in captured image pixels.
type Face struct {
	Row, Col, Scale int
	Q               float32
}

// FaceMatte approximates person segmentation from face detections: every face
// contributes a head and a shoulders ellipse with a feathered edge.
type FaceMatte struct {
	device     gpu.Device
	classifier *pigo.Pigo
	resolution Resolution

	minSize        int
	quality        float32
	detectionWidth int
	detectEvery    int
	feather        float64

	mu     *sync.Mutex
	frames int
	faces  []Face
}

var _ Generator = &FaceMatte{}

// NewFaceMatte creates a generator from a pigo face cascade.
//
// Parameters:
//   - device: the device textures are created on
//   - cascade: the binary face cascade
//   - options: functional options
//
// Returns:
//   - *FaceMatte: the generator
//   - error: error if the cascade could not be unpacked
func NewFaceMatte(device gpu.Device, cascade []byte, options ...FaceMatteBuilderOption) (*FaceMatte, error) {
	classifier, err := unpackCascade(cascade)
	if err != nil {
		return nil, err
	}
	g := &FaceMatte{
		device:         device,
		classifier:     classifier,
		resolution:     ResolutionHalf,
		minSize:        40,
		quality:        5,
		detectionWidth: 320,
		detectEvery:    1,
		feather:        6,
		mu:             &sync.Mutex{},
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// unpackCascade guards against the classifier indexing past the end of a truncated cascade.
func unpackCascade(cascade []byte) (classifier *pigo.Pigo, err error) {
	if len(cascade) < 16 {
		return nil, fmt.Errorf("failed to unpack face cascade: %d bytes", len(cascade))
	}
	defer func() {
		if r := recover(); r != nil {
			classifier, err = nil, fmt.Errorf("failed to unpack face cascade: %v", r)
		}
	}()
	classifier, err = pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack face cascade: %w", err)
	}
	return classifier, nil
}

func (g *FaceMatte) GenerateMatte(frame *session.Frame, _ gpu.CommandBuffer) gpu.Texture {
	if frame == nil || frame.CapturedImage == nil {
		return nil
	}
	luma, err := frame.CapturedImage.Plane(0)
	if err != nil {
		return nil
	}

	g.mu.Lock()
	if g.frames%g.detectEvery == 0 {
		g.faces = g.detect(luma)
	}
	g.frames++
	faces := g.faces
	g.mu.Unlock()

	w, h := g.resolution.Size(luma.Width, luma.Height)
	img := RenderSilhouette(faces, luma.Width, luma.Height, w, h, g.feather)
	tex, err := uploadGray(g.device, img, "face matte")
	if err != nil {
		common.Logger().Debug("face matte unavailable", "trace_id", frame.TraceID, "error", err)
		return nil
	}
	return tex
}

// Faces returns the detections of the last cascade run.
func (g *FaceMatte) Faces() []Face {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Face(nil), g.faces...)
}

func (g *FaceMatte) detect(luma gpu.Plane) []Face {
	src := &image.Gray{Pix: luma.Data, Stride: luma.BytesPerRow, Rect: image.Rect(0, 0, luma.Width, luma.Height)}
	scale := 1.0
	if g.detectionWidth > 0 && luma.Width > g.detectionWidth {
		scale = float64(luma.Width) / float64(g.detectionWidth)
		dh := max(int(float64(luma.Height)/scale), 1)
		src = scaleGray(src, g.detectionWidth, dh, draw.ApproxBiLinear)
	}
	b := src.Bounds()

	params := pigo.CascadeParams{
		MinSize:     g.minSize,
		MaxSize:     max(b.Dx(), b.Dy()),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: src.Pix,
			Rows:   b.Dy(),
			Cols:   b.Dx(),
			Dim:    src.Stride,
		},
	}
	dets := g.classifier.RunCascade(params, 0)
	dets = g.classifier.ClusterDetections(dets, 0.2)

	faces := make([]Face, 0, len(dets))
	for _, d := range dets {
		if d.Q < g.quality {
			continue
		}
		faces = append(faces, Face{
			Row:   int(float64(d.Row) * scale),
			Col:   int(float64(d.Col) * scale),
			Scale: int(float64(d.Scale) * scale),
			Q:     d.Q,
		})
	}
	return faces
}

type ellipse struct {
	cx, cy, rx, ry float64
}

// coverage is 1 inside e, 0 beyond feather pixels outside, linear in between.
func (e ellipse) coverage(x, y, feather float64) float64 {
	if e.rx <= 0 || e.ry <= 0 {
		return 0
	}
	dx, dy := (x-e.cx)/e.rx, (y-e.cy)/e.ry
	d := math.Sqrt(dx*dx + dy*dy)
	if d <= 1 {
		return 1
	}
	if feather <= 0 {
		return 0
	}
	out := (d - 1) * math.Min(e.rx, e.ry)
	return math.Max(0, 1-out/feather)
}

// RenderSilhouette rasterizes faces detected on an imageWidth x imageHeight image
// into a width x height matte.
//
// Parameters:
//   - faces: detections in image pixels
//   - imageWidth, imageHeight: the detection image size
//   - width, height: the matte size
//   - feather: soft edge width in matte pixels
//
// Returns:
//   - *image.Gray: the matte, 255 on the subject
func RenderSilhouette(faces []Face, imageWidth, imageHeight, width, height int, feather float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	if len(faces) == 0 || imageWidth <= 0 || imageHeight <= 0 {
		return img
	}
	sx := float64(width) / float64(imageWidth)
	sy := float64(height) / float64(imageHeight)

	shapes := make([]ellipse, 0, 2*len(faces))
	for _, f := range faces {
		s := float64(f.Scale)
		cx, cy := float64(f.Col)*sx, float64(f.Row)*sy
		shapes = append(shapes,
			ellipse{cx: cx, cy: cy, rx: 0.45 * s * sx, ry: 0.6 * s * sy},
			ellipse{cx: cx, cy: cy + 1.6*s*sy, rx: 1.2 * s * sx, ry: 1.1 * s * sy},
		)
	}

	for y := range height {
		row := img.Pix[y*img.Stride:]
		for x := range width {
			var c float64
			for _, e := range shapes {
				c = math.Max(c, e.coverage(float64(x)+0.5, float64(y)+0.5, feather))
				if c >= 1 {
					break
				}
			}
			row[x] = uint8(math.Round(c * 255))
		}
	}
	return img
}
