package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/Carmen-Shannon/oxy-halo/common"
	"github.com/Carmen-Shannon/oxy-halo/engine"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu/software"
	"github.com/Carmen-Shannon/oxy-halo/engine/gpu/webgpu"
	"github.com/Carmen-Shannon/oxy-halo/engine/matte"
	"github.com/Carmen-Shannon/oxy-halo/engine/renderer"
	"github.com/Carmen-Shannon/oxy-halo/engine/session"
	"github.com/Carmen-Shannon/oxy-halo/engine/session/camera"
	"github.com/Carmen-Shannon/oxy-halo/engine/snapshot"
	"github.com/Carmen-Shannon/oxy-halo/engine/window"
)

const helpBanner = `oxy-halo: composites a live or still feed with a glowing halo around the subject.

The webgpu backend renders into a window; the software backend renders headless and
writes snapshots.

`

var (
	backendName     = flag.String("backend", "webgpu", "Render backend: webgpu (windowed) or software (headless)")
	sourceName      = flag.String("source", "still", "Frame source: still, camera or testsrc")
	imagePath       = flag.String("in", "", "Source image for the still source")
	mattePath       = flag.String("matte", "", "Segmentation mask for the still source")
	cascadePath     = flag.String("cc", "", "Pigo face cascade; when set the matte is inferred from detected faces")
	cameraDevice    = flag.String("device", "/dev/video0", "V4L2 device for the camera source")
	cameraWidth     = flag.Int("cam-width", 1280, "Camera capture width")
	cameraHeight    = flag.Int("cam-height", 720, "Camera capture height")
	width           = flag.Int("width", 720, "Window or offscreen view width")
	height          = flag.Int("height", 1280, "Window or offscreen view height")
	orientationName = flag.String("orientation", common.OrientationPortrait.String(), "Interface orientation")
	frames          = flag.Uint64("frames", 0, "Stop after this many frames, required for the software backend")
	maxInFlight     = flag.Int("inflight", renderer.DefaultMaxFramesInFlight, "Maximum command buffers in flight")
	whiteScale      = flag.Float64("white", renderer.DefaultWhiteScale, "Blur scale of the white halo")
	yellowScale     = flag.Float64("yellow", renderer.DefaultYellowScale, "Blur scale of the yellow halo")
	fpsCap          = flag.Float64("fps", 0, "Render frame rate cap, 0 for uncapped")
	outDir          = flag.String("out", "", "Snapshot directory, snapshots are disabled when empty")
	formats         = flag.String("formats", "png", "Comma separated snapshot formats: png, exr")
	profile         = flag.Bool("profile", false, "Log frame rate, memory and renderer statistics every second")
	logLevel        = flag.String("log-level", "info", "Log level: debug, info, warn or error")
)

// GLFW must run on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, helpBanner)
		flag.PrintDefaults()
	}
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -log-level %q\n", *logLevel)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	common.SetLogger(logger)

	if err := run(); err != nil {
		logger.Error("halo failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	orientation, err := common.ParseOrientation(*orientationName)
	if err != nil {
		return err
	}
	size := common.Size{Width: *width, Height: *height}

	source, err := newSource()
	if err != nil {
		return err
	}

	var (
		device gpu.Device
		view   gpu.View
		win    window.Window
	)
	switch *backendName {
	case "webgpu":
		win = window.NewWindow(window.WithTitle("oxy-halo"), window.WithSize(size.Width, size.Height))
		defer win.Close()
		if device, err = webgpu.NewDevice(webgpu.WithLabel("oxy-halo"), webgpu.WithSurfaceDescriptor(win.SurfaceDescriptor())); err != nil {
			return err
		}
		if view, err = webgpu.NewSurfaceView(device, win.Size()); err != nil {
			device.Release()
			return err
		}
	case "software":
		if *frames == 0 {
			return errors.New("the software backend renders headless and needs -frames")
		}
		if device, view, err = newSoftwareBackend(size, *maxInFlight); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown backend %q", *backendName)
	}
	defer device.Release()

	gen, err := newMatteGenerator(device)
	if err != nil {
		return err
	}

	r, err := renderer.NewRenderer(device, source.Mailbox(), gen, view,
		renderer.WithMaxFramesInFlight(*maxInFlight),
		renderer.WithWhiteScale(*whiteScale),
		renderer.WithYellowScale(*yellowScale),
		renderer.WithOrientation(orientation),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	options := []engine.EngineBuilderOption{
		engine.WithSource(source),
		engine.WithView(view),
		engine.WithMaxFrames(*frames),
		engine.WithProfiling(*profile),
		engine.WithRenderFrameLimit(*fpsCap),
	}
	if win != nil {
		options = append(options, engine.WithWindow(win))
	}
	if *outDir != "" {
		writer, err := newSnapshotWriter()
		if err != nil {
			return err
		}
		options = append(options, engine.WithSnapshots(writer))
	}

	eng, err := engine.NewEngine(r, options...)
	if err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		if _, ok := <-signals; ok {
			eng.Quit()
		}
	}()

	return eng.Run()
}

// newSoftwareBackend creates the CPU device and an offscreen swapchain as deep as the frame budget.
func newSoftwareBackend(size common.Size, inFlight int) (gpu.Device, *software.OffscreenView, error) {
	device := software.NewDevice()
	view, err := software.NewOffscreenView(size, inFlight)
	if err != nil {
		device.Release()
		return nil, nil, err
	}
	return device, view, nil
}

func newSource() (session.Source, error) {
	switch *sourceName {
	case "still":
		if *imagePath == "" {
			return nil, errors.New("the still source needs -in")
		}
		var options []session.StillBuilderOption
		if *mattePath != "" {
			options = append(options, session.WithMattePath(*mattePath))
		}
		return session.NewStillSource(*imagePath, options...)
	case "camera":
		return camera.NewSource(camera.WithDevice(*cameraDevice), camera.WithResolution(*cameraWidth, *cameraHeight)), nil
	case "testsrc":
		return camera.NewSource(camera.WithTestPattern(), camera.WithResolution(*cameraWidth, *cameraHeight)), nil
	default:
		return nil, fmt.Errorf("unknown source %q", *sourceName)
	}
}

func newMatteGenerator(device gpu.Device) (matte.Generator, error) {
	if *cascadePath == "" {
		return matte.NewFrameMatte(device, matte.ResolutionHalf), nil
	}
	cascade, err := os.ReadFile(*cascadePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade: %w", err)
	}
	return matte.NewFaceMatte(device, cascade)
}

func newSnapshotWriter() (*snapshot.Writer, error) {
	var list []snapshot.Format
	for _, name := range strings.Split(*formats, ",") {
		f, err := snapshot.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	return snapshot.NewWriter(*outDir, snapshot.WithFormats(list...))
}
