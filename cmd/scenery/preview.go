package main

import (
	"context"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/taigrr/scenery/pkg/preview"
	"github.com/taigrr/scenery/pkg/scene"
)

type previewFlags struct {
	png    string
	width  int
	height int
	yaw    float64
	pitch  float64
	fps    int
}

func newPreviewCmd(g *globalFlags) *cobra.Command {
	f := &previewFlags{}
	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Render a scene to PNG or interactively in the terminal",
		Long: `Render a scene lit by its quad light.

With --png the frame is written to a file. Otherwise the scene is shown in
the terminal:

  ←/→ ↑/↓  spin (coasts to a stop)
  space    toggle turntable
  r        reset view
  q, esc   quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := g.load(cmd, args[0])
			if err != nil {
				return err
			}
			if f.png != "" {
				return renderPNG(s, f)
			}
			return runInteractive(cmd.Context(), s, filepath.Base(args[0]), f)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.png, "png", "o", "", "write a single frame to this PNG file")
	fl.IntVar(&f.width, "width", 320, "PNG width in pixels")
	fl.IntVar(&f.height, "height", 240, "PNG height in pixels")
	fl.Float64Var(&f.yaw, "yaw", 30, "camera yaw in degrees")
	fl.Float64Var(&f.pitch, "pitch", 20, "camera pitch in degrees")
	fl.IntVar(&f.fps, "fps", 30, "terminal frame rate")
	return cmd
}

// fitCamera frames the whole scene.
func fitCamera(s *scene.Scene, aspect float64) *preview.Camera {
	cam := preview.NewCamera()
	cam.Aspect = aspect
	if lo, hi, ok := s.Bounds(); ok {
		cam.Fit(lo, hi)
	}
	return cam
}

func renderPNG(s *scene.Scene, f *previewFlags) error {
	if f.width <= 0 || f.height <= 0 {
		return fmt.Errorf("preview: invalid size %dx%d", f.width, f.height)
	}
	fb := preview.NewFramebuffer(f.width, f.height)
	cam := fitCamera(s, float64(f.width)/float64(f.height))
	cam.Orbit(f.yaw*math.Pi/180, f.pitch*math.Pi/180)
	preview.NewRasterizer(fb).Render(s, cam)
	if err := fb.SavePNG(f.png); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	return nil
}

func runInteractive(ctx context.Context, s *scene.Scene, name string, f *previewFlags) error {
	if f.fps <= 0 {
		return fmt.Errorf("preview: invalid fps %d", f.fps)
	}
	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)
	defer func() {
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan any, 16)
	go func() {
		for ev := range term.Events() {
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	view := newTerminalView(s, width, height)
	spin := newTurntable(f.fps)
	const impulse = 0.02
	status := fmt.Sprintf(" %s  %s  [←→↑↓ spin, space turntable, r reset, q quit]", name, s.Stats())

	ticker := time.NewTicker(time.Second / time.Duration(f.fps))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				width, height = ev.Width, ev.Height
				term.Erase()
				term.Resize(width, height)
				view = newTerminalView(s, width, height)
			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("q"), ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					return nil
				case ev.MatchString("left"):
					spin.Yaw.Nudge(-impulse)
				case ev.MatchString("right"):
					spin.Yaw.Nudge(impulse)
				case ev.MatchString("up"):
					spin.Pitch.Nudge(impulse)
				case ev.MatchString("down"):
					spin.Pitch.Nudge(-impulse)
				case ev.MatchString("space"):
					spin.ToggleAuto()
				case ev.MatchString("r"):
					spin.Reset()
				}
			}
		case <-ticker.C:
			spin.Update()
			view.draw(term, spin.Yaw.Position, spin.Pitch.Position, status)
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}

// terminalView renders into all but the last terminal row, which holds a
// status line.
type terminalView struct {
	s      *scene.Scene
	fb     *preview.Framebuffer
	raster *preview.Rasterizer
	cam    *preview.Camera
	width  int
	rows   int
}

func newTerminalView(s *scene.Scene, width, height int) *terminalView {
	rows := max(height-1, 1)
	fb := preview.NewFramebuffer(max(width, 1), rows*2)
	return &terminalView{
		s:      s,
		fb:     fb,
		raster: preview.NewRasterizer(fb),
		cam:    fitCamera(s, float64(fb.Width)/float64(fb.Height)),
		width:  width,
		rows:   rows,
	}
}

func (v *terminalView) draw(scr uv.Screen, yaw, pitch float64, status string) {
	v.cam.Yaw = 0
	v.cam.Pitch = 0
	v.cam.Orbit(yaw, pitch)
	v.raster.Render(v.s, v.cam)
	v.fb.Draw(scr, uv.Rectangle{Max: image.Pt(v.width, v.rows)})

	x := 0
	for _, r := range status {
		if x >= v.width {
			break
		}
		scr.SetCell(x, v.rows, &uv.Cell{Content: string(r), Width: 1})
		x++
	}
	for ; x < v.width; x++ {
		scr.SetCell(x, v.rows, &uv.Cell{Content: " ", Width: 1})
	}
}
