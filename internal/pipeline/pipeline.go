// Package pipeline runs the per-frame loop: detect markers, update the
// tracker state, draw the overlays and publish the encoded frame.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"marker-tracker/internal/app"
	"marker-tracker/internal/marker"
	"marker-tracker/internal/render"
)

// Renderer scales raw frames and draws the state onto them.
// *render.Presenter satisfies it.
type Renderer interface {
	Prepare(src gocv.Mat) (gocv.Mat, error)
	Render(frame *gocv.Mat, view app.View, dets []marker.Detection)
}

// Sink receives encoded frames. *stream.Hub satisfies it.
type Sink interface {
	Publish(frame []byte)
}

// Pipeline ties the detector, the tracker state and the renderer together.
type Pipeline struct {
	state    *app.State
	detector marker.Detector
	renderer Renderer
	quality  int
	log      zerolog.Logger
}

// New creates a pipeline. quality is the JPEG quality used by Run.
func New(state *app.State, detector marker.Detector, renderer Renderer, quality int, log zerolog.Logger) *Pipeline {
	p := &Pipeline{
		state:    state,
		detector: detector,
		renderer: renderer,
		quality:  quality,
		log:      log,
	}
	state.On(app.EventSighted, p.onSighted)
	return p
}

// ProcessFrame runs one frame through detection, the state update for the
// current mode and overlay rendering. The caller owns the returned Mat.
// An error wrapping app.ErrLedgerCorrupt is fatal for the session.
func (p *Pipeline) ProcessFrame(raw gocv.Mat) (gocv.Mat, error) {
	start := time.Now()

	frame, err := p.renderer.Prepare(raw)
	if err != nil {
		pipelineErrors.WithLabelValues("prepare").Inc()
		return frame, fmt.Errorf("failed to prepare frame: %w", err)
	}

	dets, err := p.detector.Detect(frame)
	if err != nil {
		pipelineErrors.WithLabelValues("detect").Inc()
		return frame, fmt.Errorf("failed to detect markers: %w", err)
	}
	for _, d := range dets {
		detectionsTotal.WithLabelValues(d.Dictionary).Inc()
	}

	view, err := p.state.Observe(marker.IDs(dets))
	if err != nil {
		pipelineErrors.WithLabelValues("state").Inc()
		return frame, err
	}

	p.renderer.Render(&frame, view, dets)

	framesProcessed.WithLabelValues(view.Mode.String()).Inc()
	frameDuration.Observe(time.Since(start).Seconds())
	return frame, nil
}

// Run reads frames from src until it ends, ctx is cancelled or the ledger
// reports corruption. A source that stops producing frames ends the loop
// cleanly with a nil error; there is no retry.
func (p *Pipeline) Run(ctx context.Context, src Source, sink Sink) error {
	raw := gocv.NewMat()
	defer raw.Close()

	p.log.Info().Msg("Pipeline: started")
	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			p.log.Info().Int("frames", frames).Msg("Pipeline: stopped")
			return nil
		}
		if ok := src.Read(&raw); !ok || raw.Empty() {
			p.log.Info().Int("frames", frames).Msg("Pipeline: frame source ended")
			return nil
		}
		frames++

		out, err := p.ProcessFrame(raw)
		if err != nil {
			out.Close()
			if errors.Is(err, app.ErrLedgerCorrupt) {
				p.log.Error().Err(err).Int("frame", frames).Msg("Pipeline: ledger invariant violated")
				return err
			}
			p.log.Warn().Err(err).Int("frame", frames).Msg("Pipeline: frame dropped")
			continue
		}

		jpeg, err := render.Encode(out, p.quality)
		out.Close()
		if err != nil {
			pipelineErrors.WithLabelValues("encode").Inc()
			p.log.Warn().Err(err).Int("frame", frames).Msg("Pipeline: frame dropped")
			continue
		}
		sink.Publish(jpeg)
	}
}

func (p *Pipeline) onSighted(data interface{}) {
	s, ok := data.(app.Sighting)
	if !ok {
		return
	}
	sightingsTotal.WithLabelValues(strconv.FormatBool(s.IsTarget)).Inc()
	p.log.Info().
		Int("id", s.ID).
		Int("position", s.Position).
		Bool("target", s.IsTarget).
		Msg("Pipeline: first sighting")
}
