package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"marker-tracker/internal/app"
	"marker-tracker/internal/marker"
)

// scriptedDetector returns one scripted ID list per call, then nothing.
type scriptedDetector struct {
	frames [][]int
	calls  int
	err    error
}

func (d *scriptedDetector) Detect(gocv.Mat) ([]marker.Detection, error) {
	if d.err != nil {
		return nil, d.err
	}
	defer func() { d.calls++ }()
	if d.calls >= len(d.frames) {
		return nil, nil
	}
	var out []marker.Detection
	for _, id := range d.frames[d.calls] {
		out = append(out, marker.Detection{ID: id, Dictionary: "DICT_4X4_50"})
	}
	return out, nil
}

func (d *scriptedDetector) Close() error { return nil }

type recordingRenderer struct {
	views []app.View
}

func (r *recordingRenderer) Prepare(src gocv.Mat) (gocv.Mat, error) {
	return src.Clone(), nil
}

func (r *recordingRenderer) Render(_ *gocv.Mat, view app.View, _ []marker.Detection) {
	r.views = append(r.views, view)
}

type blankSource struct {
	remaining int
	closed    bool
}

func (s *blankSource) Read(m *gocv.Mat) bool {
	if s.remaining == 0 {
		return false
	}
	s.remaining--
	blank := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer blank.Close()
	blank.CopyTo(m)
	return true
}

func (s *blankSource) Close() error {
	s.closed = true
	return nil
}

type collectSink struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *collectSink) Publish(frame []byte) {
	c.mu.Lock()
	c.frames = append(c.frames, frame)
	c.mu.Unlock()
}

func newFrame() gocv.Mat {
	return gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
}

func TestProcessFrame_MemorizeThenDetect(t *testing.T) {
	state := app.NewState()
	det := &scriptedDetector{frames: [][]int{{5, 7}, {7}, {9}, {3, 9}}}
	rend := &recordingRenderer{}
	p := New(state, det, rend, 80, zerolog.Nop())

	raw := newFrame()
	defer raw.Close()

	out, err := p.ProcessFrame(raw)
	require.NoError(t, err)
	out.Close()
	out, err = p.ProcessFrame(raw)
	require.NoError(t, err)
	out.Close()

	state.AddTargets()
	assert.Equal(t, []int{7}, state.Snapshot().Targets)
	state.StartDetection()

	out, err = p.ProcessFrame(raw)
	require.NoError(t, err)
	out.Close()
	out, err = p.ProcessFrame(raw)
	require.NoError(t, err)
	out.Close()

	require.Len(t, rend.views, 4)
	assert.Equal(t, []int{5, 7}, rend.views[0].Candidates)
	assert.Equal(t, []int{7}, rend.views[1].Candidates)

	last := rend.views[3]
	assert.Equal(t, app.ModeDetect, last.Mode)
	require.Len(t, last.Sightings, 2)
	assert.Equal(t, app.Sighting{ID: 9, Position: 1, IsTarget: false, FirstSeen: last.Sightings[0].FirstSeen}, last.Sightings[0])
	assert.Equal(t, 3, last.Sightings[1].ID)
	assert.False(t, last.Sightings[1].IsTarget)
}

func TestProcessFrame_DetectorError(t *testing.T) {
	p := New(app.NewState(), &scriptedDetector{err: errors.New("boom")}, &recordingRenderer{}, 80, zerolog.Nop())
	raw := newFrame()
	defer raw.Close()

	out, err := p.ProcessFrame(raw)
	out.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to detect markers")
}

func TestRun_EndsCleanlyWhenSourceStops(t *testing.T) {
	state := app.NewState()
	state.StartDetection()
	det := &scriptedDetector{frames: [][]int{{1}, {2, 1}, {3}}}
	src := &blankSource{remaining: 3}
	sink := &collectSink{}

	p := New(state, det, &recordingRenderer{}, 80, zerolog.Nop())
	require.NoError(t, p.Run(context.Background(), src, sink))

	assert.Len(t, sink.frames, 3)
	for _, f := range sink.frames {
		assert.Equal(t, []byte{0xFF, 0xD8}, f[:2])
	}
	got := state.Snapshot().Sightings
	require.Len(t, got, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].ID, got[1].ID, got[2].ID})

	// Control operations still work after the loop ended.
	state.Reset()
	assert.Empty(t, state.Snapshot().Sightings)
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &blankSource{remaining: 10}
	sink := &collectSink{}
	p := New(app.NewState(), &scriptedDetector{}, &recordingRenderer{}, 80, zerolog.Nop())

	require.NoError(t, p.Run(ctx, src, sink))
	assert.Empty(t, sink.frames)
	assert.Equal(t, 10, src.remaining)
}

func TestRun_SkipsFramesTheDetectorRejects(t *testing.T) {
	src := &blankSource{remaining: 2}
	sink := &collectSink{}
	p := New(app.NewState(), &scriptedDetector{err: errors.New("bad frame")}, &recordingRenderer{}, 80, zerolog.Nop())

	require.NoError(t, p.Run(context.Background(), src, sink))
	assert.Empty(t, sink.frames)
	assert.Equal(t, 0, src.remaining)
}

func TestOpenSource_RejectsGarbage(t *testing.T) {
	_, err := OpenSource("")
	assert.Error(t, err)
	_, err = OpenSource("not-a-camera")
	assert.Error(t, err)
}
