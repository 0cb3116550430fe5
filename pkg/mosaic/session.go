package mosaic

import(
	"fmt"
	"image"
	"log"
	"math"
	"sync"
	"time"

	"github.com/abworrall/skymosaic/pkg/mwcs"
)

// A Session owns the current mosaic frame. There is at most one
// current frame at a time; all ingestion into it is serialized by the
// session's lock, which also guards the per-batch counters.
type Session struct {
	mu             sync.Mutex

	frame          *MosaicFrame
	frameCount     int
	preprocess     PreprocessFunc

	ingestCount    int           // tiles successfully composited this batch
	processElapsed time.Duration // cumulative ingest time this batch

	canvas         Canvas
	status         StatusSink
}

func NewSession(canvas Canvas, status StatusSink) *Session {
	if canvas == nil { canvas = NopCanvas{} }
	if status == nil { status = LogStatus{} }

	return &Session{
		preprocess: func(t *SourceTile) *SourceTile { return t },
		canvas:     canvas,
		status:     status,
	}
}

// SetPreprocess installs a hook that gets to rewrite each tile just
// before compositing. Passing nil restores the identity.
func (s *Session)SetPreprocess(fn PreprocessFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fn == nil {
		fn = func(t *SourceTile) *SourceTile { return t }
	}
	s.preprocess = fn
}

// Reset discards the current frame, so the next batch starts a fresh
// mosaic.
func (s *Session)Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = nil
}

func (s *Session)Frame() *MosaicFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *Session)IngestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingestCount
}

// ShouldStartNewFrame says whether the given tile needs a new frame:
// there is none, the caller asked for one, or the tile's center is
// further from the frame's center than the fov. A distance of exactly
// fovDeg does not trigger a new frame.
func (s *Session)ShouldStartNewFrame(t *SourceTile, newMosaic bool, fovDeg float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shouldStartNewFrame(t, newMosaic, fovDeg)
}

func (s *Session)shouldStartNewFrame(t *SourceTile, newMosaic bool, fovDeg float64) bool {
	if newMosaic || s.frame == nil {
		return true
	}

	ra1, dec1 := s.frame.CenterSky()
	ra2, dec2 := t.CenterSky()

	return mwcs.AngularSepDeg(ra1, dec1, ra2, dec2) > fovDeg
}

// CreateFrame makes a blank frame sized to cover fovDeg, pointed and
// scaled like the founding tile, and registers it as current. The
// background reference for the frame's whole lifetime is the median
// of the founding tile.
func (s *Session)CreateFrame(t *SourceTile, fovDeg float64) *MosaicFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createFrame(t, fovDeg)
}

func (s *Session)createFrame(t *SourceTile, fovDeg float64) *MosaicFrame {
	hdr := t.WCS.Header
	rotDeg, cdelt1, cdelt2 := hdr.RotationAndScale()
	log.Printf("tile0 rot=%f cdelt1=%f cdelt2=%f\n", rotDeg, cdelt1, cdelt2)

	// TODO: handle differing pixel scale for each axis?
	pxScale := math.Abs(cdelt1)
	signs := [2]float64{sign(cdelt1), sign(cdelt2)}

	s.status.Status("Creating blank image...")

	name := fmt.Sprintf("mosaic%d", s.frameCount)
	s.frameCount++

	fm := NewBlankFrame(name, hdr.Crval1, hdr.Crval2, fovDeg, pxScale, rotDeg, signs)
	fm.BgRef = t.Data.Median()

	s.frame = fm
	s.canvas.AddImage(name, fm)
	log.Printf("new frame %s\n", fm)

	return fm
}

// IngestOne composites one tile into the current frame, honoring the
// settings snapshot. Calling it with no current frame is a scheduler
// bug, and panics.
func (s *Session)IngestOne(t *SourceTile, cfg Settings) (image.Rectangle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingestOne(t, cfg)
}

func (s *Session)ingestOne(t *SourceTile, cfg Settings) (image.Rectangle, error) {
	if s.frame == nil {
		panic("mosaic: IngestOne with no current frame")
	}

	tStart := time.Now()

	var bgRef *float64
	if cfg.MatchBg {
		v := s.frame.BgRef
		bgRef = &v
	}

	s.status.Status(fmt.Sprintf("Processing '%s' ...", t.Name()))
	t = s.preprocess(t)

	loc, err := Inline(s.frame, t, bgRef, cfg.TrimPx, cfg.Merge)
	if err != nil {
		return loc, err
	}

	if cfg.AnnotateImages && !loc.Empty() {
		s.canvas.Annotate(float64(loc.Min.X+loc.Max.X)/2.0, float64(loc.Min.Y+loc.Max.Y)/2.0, t.Name())
	}

	s.ingestCount++
	s.processElapsed += time.Since(tStart)

	return loc, nil
}

// beginBatch resets the per-batch counters. The frame survives
// across batches; the counters don't.
func (s *Session)beginBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingestCount = 0
	s.processElapsed = 0
}

func sign(f float64) float64 {
	if f < 0.0 { return -1.0 }
	return 1.0
}
