// Command framepump drives the frame pipeline against an in-process window
// system and reports what was presented.
//
// Usage:
//
//	framepump -frames 120 -surfaces 3 -workers 4 -verify -dump frame.bmp
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gpucontext"
	"golang.org/x/image/bmp"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/framepump"
	"github.com/gogpu/framepump/pattern"
	"github.com/gogpu/framepump/window"
	"github.com/gogpu/framepump/window/memwin"
)

// presentTimeout bounds how long the producer waits for one frame.
const presentTimeout = 5 * time.Second

// frontBuffer is implemented by window systems that can hand out a copy of
// the last presented buffer.
type frontBuffer interface {
	Front() *window.Buffer
}

func main() {
	var (
		backend  = flag.String("backend", "", "window system (default: best available)")
		frames   = flag.Int("frames", 60, "frames to present per surface")
		surfaces = flag.Int("surfaces", 1, "number of surfaces to attach in turn")
		workers  = flag.Int("workers", 0, "parallel fill goroutines (0 = serial, -1 = GOMAXPROCS)")
		policy   = flag.String("policy", "abort", "double-pending signal policy: abort or report")
		dump     = flag.String("dump", "", "write the last presented frame as BMP")
		verify   = flag.Bool("verify", false, "check the last presented frame against the pattern")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	framepump.SetLogger(logger)
	memwin.SetLogger(logger)

	if err := run(logger, config{
		backend:  *backend,
		frames:   *frames,
		surfaces: *surfaces,
		workers:  *workers,
		policy:   *policy,
		dump:     *dump,
		verify:   *verify,
	}); err != nil {
		logger.Error("framepump failed", "err", err)
		os.Exit(1)
	}
}

type config struct {
	backend  string
	frames   int
	surfaces int
	workers  int
	policy   string
	dump     string
	verify   bool
}

func run(logger *slog.Logger, cfg config) error {
	policy, err := framepump.ParsePolicy(cfg.policy)
	if err != nil {
		return err
	}

	sys, name, err := openSystem(cfg.backend)
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, window.Available())
	}
	logger.Info("window system", "backend", name)

	presented := make(chan uint64, 1)
	m := framepump.New(sys,
		framepump.WithViolationPolicy(policy),
		framepump.WithParallelFill(cfg.workers),
		framepump.WithPresentHook(func(seq uint64) { presented <- seq }),
	)
	defer m.Close()

	start := time.Now()
	for i := range cfg.surfaces {
		ref := gpucontext.NullWindowProvider{W: window.TargetWidth, H: window.TargetHeight}
		if err := m.OnSurfaceAvailable(ref); err != nil {
			return fmt.Errorf("surface %d: %w", i, err)
		}
		for range cfg.frames {
			// Lock-step: one frame in flight, so the producer never gets
			// ahead of the render worker.
			m.OnFrameReady()
			select {
			case <-presented:
			case <-time.After(presentTimeout):
				return fmt.Errorf("surface %d: no frame presented within %v", i, presentTimeout)
			}
		}
	}
	elapsed := time.Since(start)

	if cfg.verify || cfg.dump != "" {
		if err := inspect(logger, sys, cfg.verify, cfg.dump); err != nil {
			return err
		}
	}
	if err := m.Close(); err != nil {
		return err
	}

	printSummary(m.Stats(), elapsed)
	return nil
}

func openSystem(name string) (window.System, string, error) {
	if name == "" {
		return window.Default()
	}
	sys, err := window.Open(name)
	return sys, name, err
}

func inspect(logger *slog.Logger, sys window.System, verify bool, dump string) error {
	fb, ok := sys.(frontBuffer)
	if !ok {
		return fmt.Errorf("window system %T cannot read back frames", sys)
	}
	buf := fb.Front()
	if buf == nil {
		return fmt.Errorf("no frame presented")
	}

	if verify {
		if err := pattern.Verify(buf); err != nil {
			return err
		}
		logger.Info("frame verified", "width", buf.Width, "height", buf.Height, "stride", buf.Stride)
	}

	if dump != "" {
		f, err := os.Create(dump)
		if err != nil {
			return err
		}
		if err := bmp.Encode(f, buf.Image()); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode %s: %w", dump, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("frame written", "path", dump)
	}
	return nil
}

func printSummary(st framepump.Stats, elapsed time.Duration) {
	p := message.NewPrinter(language.English)
	fps := 0.0
	if elapsed > 0 {
		fps = float64(st.Presented) / elapsed.Seconds()
	}
	p.Printf("sessions:   %d (%d unusable)\n", st.SessionsStarted, st.ConfigureFailures)
	p.Printf("presented:  %d frames in %v (%.1f fps)\n", st.Presented, elapsed.Round(time.Millisecond), fps)
	p.Printf("bytes:      %d\n", st.Presented*uint64(window.TargetHeight*window.TargetWidth*window.BytesPerPixel))
	p.Printf("dropped:    %d events, %d lock failures, %d post failures\n",
		st.FramesDropped, st.LockFailures, st.PostFailures)
	p.Printf("violations: %d\n", st.Violations)
}
