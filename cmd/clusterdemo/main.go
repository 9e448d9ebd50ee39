// Command clusterdemo animates a field of point lights and bins them into a clustered
// frustum grid every frame, reporting stage timings and cluster occupancy.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-clusters/common"
	"github.com/Carmen-Shannon/oxy-clusters/engine"
	"github.com/Carmen-Shannon/oxy-clusters/engine/camera"
	"github.com/Carmen-Shannon/oxy-clusters/engine/cluster"
	"github.com/Carmen-Shannon/oxy-clusters/engine/light"
	"github.com/Carmen-Shannon/oxy-clusters/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clusters/engine/window"
)

// lightStep is how many lights one +/- key press adds or removes.
const lightStep = 100

func main() {
	var (
		backend  = flag.String("backend", "host", "compute backend: host or wgpu")
		lights   = flag.Int("lights", light.DefaultNumLights, "active light count")
		capacity = flag.Int("capacity", light.MaxNumLights, "light store capacity")
		frames   = flag.Int("frames", 120, "frames to run before exiting (0 = until the window closes, the default with -window)")
		dim      = flag.String("dim", "16,9,24", "cluster grid dimensions X,Y,Z")
		maxPer   = flag.Int("max-per-cluster", cluster.MaxLightsPerCluster, "light index capacity per cluster")
		useWin   = flag.Bool("window", false, "open a GLFW window for interactive control")
		heatmap  = flag.String("heatmap", "", "write the occupancy heatmap of -slice to this PNG file (host backend)")
		slice    = flag.Int("slice", 8, "depth slice drawn by -heatmap")
		scale    = flag.Int("scale", 32, "heatmap pixels per cluster")
		debug    = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	common.SetLogger(logger)

	// An interactive window runs until closed unless -frames was given explicitly.
	if *useWin && !flagSet("frames") {
		*frames = 0
	}

	backendType, ok := renderer.ParseBackendType(*backend)
	if !ok {
		log.Fatalf("unknown backend %q", *backend)
	}
	gridDim, err := parseDim(*dim)
	if err != nil {
		log.Fatalf("-dim: %v", err)
	}

	var win window.Window
	aspect := float32(16.0 / 9.0)
	if *useWin {
		win, err = window.NewWindow(window.WithTitle("oxy-clusters"), window.WithWidth(1280), window.WithHeight(720))
		if err != nil {
			log.Fatalf("window: %v", err)
		}
		defer win.Close()
		aspect = win.Aspect()
	}

	r, err := renderer.NewRenderer(renderer.WithBackend(backendType))
	if err != nil {
		log.Fatalf("renderer: %v", err)
	}
	defer r.Release()

	ctrl := camera.NewOrbitController()
	cam, err := camera.NewCamera(
		camera.WithFov(float32(45.0*math.Pi/180.0)),
		camera.WithAspect(aspect),
		camera.WithNear(0.1),
		camera.WithFar(100),
		camera.WithController(ctrl),
	)
	if err != nil {
		log.Fatalf("camera: %v", err)
	}
	if err := cam.Init(r); err != nil {
		log.Fatalf("camera: %v", err)
	}

	lts, err := engine.NewLights(r, cam,
		engine.WithLightStoreOptions(light.WithCapacity(*capacity), light.WithActiveCount(*lights)),
		engine.WithGridOptions(
			cluster.WithClusterDim(gridDim[0], gridDim[1], gridDim[2]),
			cluster.WithMaxLightsPerCluster(*maxPer),
		),
	)
	if err != nil {
		log.Fatalf("lights: %v", err)
	}
	defer lts.Release()

	opts := []engine.EngineBuilderOption{
		engine.WithProfiling(true),
		engine.WithTickRate(60),
		engine.WithMaxFrames(*frames),
	}
	if win != nil {
		opts = append(opts, engine.WithWindow(win))
	}
	eng := engine.NewEngine(lts, opts...)

	if win != nil {
		bindInput(eng, win, ctrl, *slice, *scale)
	}

	if err := eng.Run(); err != nil {
		log.Fatalf("run: %v", err)
	}
	slog.Info("done", "frames", eng.Frames(), "lights", lts.NumLights())

	if err := report(lts, *heatmap, *slice, *scale); err != nil {
		log.Fatal(err)
	}
}

// bindInput wires the demo keys: +/- change the active light count, arrows orbit the camera,
// the scroll wheel zooms, C logs occupancy, H writes heatmap.png, P toggles the profiler
// and Esc quits.
func bindInput(eng engine.Engine, win window.Window, ctrl camera.CameraController, slice, scale int) {
	lts := eng.Lights()
	cam := lts.Camera()

	setLights := func(n int) {
		n = min(max(n, 0), lts.Store().Capacity())
		if err := lts.SetNumLights(n); err != nil {
			slog.Warn("set light count", "error", err)
			return
		}
		win.SetTitle(fmt.Sprintf("oxy-clusters: %d lights", n))
	}
	setLights(lts.NumLights())
	profiling := true

	win.SetKeyDownCallback(func(key uint32) {
		switch key {
		case common.KeyEqual, common.KeyKPAdd:
			setLights(lts.NumLights() + lightStep)
		case common.KeyMinus, common.KeyKPSubtract:
			setLights(lts.NumLights() - lightStep)
		case common.KeyLeft:
			ctrl.OrbitLeft()
		case common.KeyRight:
			ctrl.OrbitRight()
		case common.KeyUp:
			ctrl.OrbitUp()
		case common.KeyDown:
			ctrl.OrbitDown()
		case common.KeyC:
			if err := report(lts, "", slice, scale); err != nil {
				slog.Warn("cluster report", "error", err)
			}
		case common.KeyH:
			if err := report(lts, "heatmap.png", slice, scale); err != nil {
				slog.Warn("cluster report", "error", err)
			}
		case common.KeyP:
			profiling = !profiling
			if profiling {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		case common.KeyEsc:
			eng.Quit()
		}
	})
	win.SetScrollCallback(func(delta float32) {
		ctrl.Zoom(delta)
	})

	eng.SetTickCallback(func(float32) {
		cam.Update()
	})
}

// report logs cluster occupancy and optionally writes the heatmap. Backends without readback
// skip it.
func report(lts *engine.Lights, heatmapPath string, slice, scale int) error {
	clusters, err := lts.Binner().Snapshot()
	if errors.Is(err, renderer.ErrReadbackUnsupported) {
		slog.Info("cluster report skipped", "reason", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	grid := lts.Grid()
	var total, occupied, full int
	var busiest uint32
	for _, c := range clusters {
		total += int(c.NumLights)
		if c.NumLights > 0 {
			occupied++
		}
		if c.NumLights == grid.MaxLightsPerCluster() {
			full++
		}
		busiest = max(busiest, c.NumLights)
	}
	slog.Info("clusters",
		"lights", lts.NumLights(),
		"count", len(clusters),
		"occupied", occupied,
		"full", full,
		"max_lights", busiest,
		"mean_lights", float64(total)/float64(max(len(clusters), 1)),
	)

	if heatmapPath == "" {
		return nil
	}
	if slice < 0 {
		return fmt.Errorf("slice %d must be >= 0", slice)
	}
	img, err := cluster.Heatmap(clusters, grid, uint32(slice), scale)
	if err != nil {
		return fmt.Errorf("heatmap: %w", err)
	}
	f, err := os.Create(heatmapPath)
	if err != nil {
		return fmt.Errorf("heatmap: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("heatmap: %w", err)
	}
	slog.Info("heatmap written", "path", heatmapPath, "slice", slice)
	return nil
}

// parseDim parses "X,Y,Z".
func parseDim(s string) ([3]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return [3]int{}, fmt.Errorf("want X,Y,Z, got %q", s)
	}
	var d [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return [3]int{}, fmt.Errorf("component %d: %w", i, err)
		}
		d[i] = v
	}
	return d, nil
}

// flagSet reports whether the named flag was given on the command line.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
