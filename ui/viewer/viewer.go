// Package viewer provides the optional desktop window: the live rendered
// frame, the three control buttons, a status line and the sightings list.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"marker-tracker/internal/app"
	"marker-tracker/internal/stream"
	"marker-tracker/internal/version"
	"marker-tracker/ui/prefs"
)

const (
	defaultWidth  = 980
	defaultHeight = 560
)

// Viewer is the desktop window.
type Viewer struct {
	fyne.Window
	app   fyne.App
	state *app.State
	hub   *stream.Hub
	prefs *prefs.Prefs
	log   zerolog.Logger

	frame   *canvas.Image
	status  *widget.Label
	results *widget.List

	addBtn    *widget.Button
	detectBtn *widget.Button
	resetBtn  *widget.Button

	mu        sync.Mutex
	sightings []app.Sighting
}

// New creates the window. Call Run to show it.
func New(fyneApp fyne.App, state *app.State, hub *stream.Hub, p *prefs.Prefs, log zerolog.Logger) *Viewer {
	fyneApp.Settings().SetTheme(&app.MarkerTheme{})
	win := fyneApp.NewWindow("Marker Tracker " + version.Version)

	v := &Viewer{
		Window: win,
		app:    fyneApp,
		state:  state,
		hub:    hub,
		prefs:  p,
		log:    log,
	}
	v.setupUI()
	v.setupEventHandlers()
	v.refresh(nil)

	win.Resize(fyne.NewSize(
		float32(p.Int(prefs.KeyWindowWidth, defaultWidth)),
		float32(p.Int(prefs.KeyWindowHeight, defaultHeight)),
	))
	win.SetOnClosed(v.savePreferences)
	return v
}

func (v *Viewer) setupUI() {
	v.frame = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 640, 480)))
	v.frame.FillMode = canvas.ImageFillContain
	v.frame.SetMinSize(fyne.NewSize(320, 240))

	v.status = widget.NewLabel("")

	v.results = widget.NewList(
		func() int {
			v.mu.Lock()
			defer v.mu.Unlock()
			return len(v.sightings)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("#000  marker 0000  TARGET")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			v.mu.Lock()
			defer v.mu.Unlock()
			if id < 0 || id >= len(v.sightings) {
				return
			}
			obj.(*widget.Label).SetText(sightingText(v.sightings[id]))
		},
	)

	v.addBtn = widget.NewButtonWithIcon("Add targets", theme.ContentAddIcon(), v.state.AddTargets)
	v.detectBtn = widget.NewButtonWithIcon("Start detection", theme.MediaPlayIcon(), v.state.StartDetection)
	v.resetBtn = widget.NewButtonWithIcon("Reset", theme.ViewRefreshIcon(), v.state.Reset)
	v.resetBtn.Importance = widget.DangerImportance

	toolbar := container.NewHBox(v.addBtn, v.detectBtn, v.resetBtn)

	side := container.NewBorder(
		widget.NewLabelWithStyle("First sightings", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		nil, nil, nil,
		v.results,
	)
	split := container.NewHSplit(v.frame, side)
	split.SetOffset(0.7)
	if !v.prefs.Bool(prefs.KeyShowResults, true) {
		split.SetOffset(1)
	}

	v.SetContent(container.NewBorder(
		toolbar,
		container.NewPadded(v.status),
		nil, nil,
		split,
	))
}

func (v *Viewer) setupEventHandlers() {
	for _, kind := range []app.EventType{
		app.EventModeChanged,
		app.EventCandidatesChanged,
		app.EventTargetsChanged,
		app.EventSighted,
		app.EventReset,
	} {
		v.state.On(kind, v.refresh)
	}
}

// refresh redraws the status line, the buttons and the results list.
func (v *Viewer) refresh(interface{}) {
	view := v.state.Snapshot()

	v.mu.Lock()
	v.sightings = view.Sightings
	v.mu.Unlock()

	v.status.SetText(statusText(view))
	if view.Mode == app.ModeMemorize {
		v.addBtn.Enable()
		v.detectBtn.Enable()
	} else {
		v.addBtn.Disable()
		v.detectBtn.Disable()
	}
	v.results.Refresh()
}

// Run shows the window and blocks until it is closed or ctx is done. It
// must be called from the main goroutine.
func (v *Viewer) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go v.feedFrames(ctx)
	go func() {
		<-ctx.Done()
		v.app.Quit()
	}()

	v.ShowAndRun()
}

// feedFrames decodes every frame the hub publishes into the image canvas.
func (v *Viewer) feedFrames(ctx context.Context) {
	sub := v.hub.Subscribe()
	defer sub.Close()

	for {
		jpeg, err := sub.Next(ctx)
		if err != nil {
			if !errors.Is(err, stream.ErrClosed) && ctx.Err() == nil {
				v.log.Warn().Err(err).Msg("Viewer: frame feed stopped")
			}
			return
		}
		img, err := decodeFrame(jpeg)
		if err != nil {
			v.log.Debug().Err(err).Msg("Viewer: skipped undecodable frame")
			continue
		}
		v.frame.Image = img
		v.frame.Refresh()
	}
}

func (v *Viewer) savePreferences() {
	size := v.Canvas().Size()
	v.prefs.SetInt(prefs.KeyWindowWidth, int(size.Width))
	v.prefs.SetInt(prefs.KeyWindowHeight, int(size.Height))
	if err := v.prefs.Save(); err != nil {
		v.log.Warn().Err(err).Msg("Viewer: failed to save preferences")
	}
}

func decodeFrame(jpeg []byte) (image.Image, error) {
	mat, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("failed to decode frame: empty image")
	}
	return mat.ToImage()
}

func statusText(view app.View) string {
	switch view.Mode {
	case app.ModeMemorize:
		if len(view.Candidates) == 0 {
			return fmt.Sprintf("Memorize | %d target(s) | no markers in view", len(view.Targets))
		}
		return fmt.Sprintf("Memorize | %d target(s) | in view: %s", len(view.Targets), joinInts(view.Candidates))
	case app.ModeDetect:
		found := 0
		for _, s := range view.Sightings {
			if s.IsTarget {
				found++
			}
		}
		return fmt.Sprintf("Detect | %d of %d target(s) found | %d marker(s) seen",
			found, len(view.Targets), len(view.Sightings))
	}
	return view.Mode.String()
}

func sightingText(s app.Sighting) string {
	text := fmt.Sprintf("#%d  marker %d  %s", s.Position, s.ID, s.FirstSeen.Format("15:04:05"))
	if s.IsTarget {
		text += "  TARGET"
	}
	return text
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
