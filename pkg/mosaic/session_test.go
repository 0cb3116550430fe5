package mosaic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/skymosaic/pkg/mwcs"
)

func TestShouldStartNewFrame(t *testing.T) {
	sess := NewSession(nil, &recordingStatus{})
	tile := makeTile("t0", 180.0, 0.0, 20, 20, 100.0)

	// No current frame
	assert.True(t, sess.ShouldStartNewFrame(tile, false, 1.0))

	sess.CreateFrame(tile, 1.0)
	assert.False(t, sess.ShouldStartNewFrame(tile, false, 1.0))

	// Explicit request always wins
	assert.True(t, sess.ShouldStartNewFrame(tile, true, 1.0))

	// Pointed away: new frame iff distance exceeds the fov
	near := makeTile("near", 180.0, 0.4, 20, 20, 100.0)
	farr := makeTile("far", 180.0, 1.6, 20, 20, 100.0)
	assert.False(t, sess.ShouldStartNewFrame(near, false, 1.0))
	assert.True(t, sess.ShouldStartNewFrame(farr, false, 1.0))

	// Distance exactly equal to the fov does NOT start a new frame
	dist := mwcs.AngularSepDeg(180.0, 0.0, 180.0, 0.4)
	assert.False(t, sess.ShouldStartNewFrame(near, false, dist))
	assert.True(t, sess.ShouldStartNewFrame(near, false, dist*0.99))
}

func TestCreateFrame(t *testing.T) {
	canvas := &recordingCanvas{}
	sess := NewSession(canvas, &recordingStatus{})

	tile := makeTile("t0", 180.0, 10.0, 20, 20, 80.0)
	fm := sess.CreateFrame(tile, 0.5)

	// Sized to cover the fov at the tile's pixel scale
	assert.Equal(t, 500, fm.Data.Dx())
	assert.Equal(t, 500, fm.Data.Dy())
	assert.Equal(t, 0.5, fm.FovDeg)

	// Pointed like the tile, with the tile's axis signs
	ra, dec := fm.CenterSky()
	assert.InDelta(t, 180.0, ra, 1e-9)
	assert.InDelta(t, 10.0, dec, 1e-9)
	assert.Equal(t, -0.001, fm.WCS.Cdelt1)
	assert.Equal(t, 0.001, fm.WCS.Cdelt2)

	// Background reference is the founding tile's median
	assert.Equal(t, 80.0, fm.BgRef)

	// Display collaborator told about the new image, names count up
	assert.Equal(t, []string{"mosaic0"}, canvas.frames)
	sess.CreateFrame(tile, 0.5)
	assert.Equal(t, []string{"mosaic0", "mosaic1"}, canvas.frames)
}

func TestIngestOneWithoutFramePanics(t *testing.T) {
	sess := NewSession(nil, &recordingStatus{})
	tile := makeTile("t0", 180.0, 0.0, 20, 20, 100.0)

	require.Panics(t, func() { sess.IngestOne(tile, NewSettings()) })
}

func TestIngestOneCountsAndAnnotates(t *testing.T) {
	canvas := &recordingCanvas{}
	sess := NewSession(canvas, &recordingStatus{})

	cfg := NewSettings()
	cfg.FovDeg = 0.1
	cfg.AnnotateImages = true

	tile := makeTile("t0", 180.0, 0.0, 20, 20, 100.0)
	sess.CreateFrame(tile, cfg.FovDeg)

	loc, err := sess.IngestOne(tile, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.IngestCount())

	// Label lands at the centroid of the written region
	require.Len(t, canvas.annotations, 1)
	assert.Equal(t, float64(loc.Min.X+loc.Max.X)/2.0, canvas.annotations[0].x)
	assert.Equal(t, float64(loc.Min.Y+loc.Max.Y)/2.0, canvas.annotations[0].y)
	assert.Equal(t, "t0", canvas.annotations[0].label)
}

func TestIngestOneMatchBgUsesFrameRef(t *testing.T) {
	sess := NewSession(nil, &recordingStatus{})

	cfg := NewSettings()
	cfg.FovDeg = 0.1
	cfg.MatchBg = true

	first := makeTile("t0", 180.0, 0.0, 20, 20, 100.0)
	fm := sess.CreateFrame(first, cfg.FovDeg)
	require.Equal(t, 100.0, fm.BgRef)

	dim := makeTile("t1", 180.0, 0.0, 20, 20, 80.0)
	loc, err := sess.IngestOne(dim, cfg)
	require.NoError(t, err)

	// 80 + (100 - 80)
	assert.Equal(t, 100.0, fm.Data.Get(loc.Min.X, loc.Min.Y))
}

func TestPreprocessHook(t *testing.T) {
	sess := NewSession(nil, &recordingStatus{})

	cfg := NewSettings()
	cfg.FovDeg = 0.1

	tile := makeTile("t0", 180.0, 0.0, 20, 20, 100.0)
	fm := sess.CreateFrame(tile, cfg.FovDeg)

	sess.SetPreprocess(func(t *SourceTile) *SourceTile {
		t2 := *t
		t2.Data = *t.Data.Copy()
		t2.Data.Fill(5.0)
		return &t2
	})

	loc, err := sess.IngestOne(tile, cfg)
	require.NoError(t, err)
	assert.Equal(t, 5.0, fm.Data.Get(loc.Min.X, loc.Min.Y))

	// nil restores the identity
	sess.SetPreprocess(nil)
	loc, err = sess.IngestOne(tile, cfg)
	require.NoError(t, err)
	assert.Equal(t, 100.0, fm.Data.Get(loc.Min.X, loc.Min.Y))
}

func TestReset(t *testing.T) {
	sess := NewSession(nil, &recordingStatus{})
	tile := makeTile("t0", 180.0, 0.0, 20, 20, 100.0)

	sess.CreateFrame(tile, 1.0)
	require.NotNil(t, sess.Frame())

	sess.Reset()
	assert.Nil(t, sess.Frame())
	assert.True(t, sess.ShouldStartNewFrame(tile, false, 1.0))
}
