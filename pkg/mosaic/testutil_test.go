package mosaic

import (
	"fmt"
	"sync"

	"github.com/abworrall/skymosaic/pkg/mgrid"
	"github.com/abworrall/skymosaic/pkg/mwcs"
)

// makeTile builds an in-memory tile: w x h pixels of constant value,
// centered on (raDeg,decDeg) at 3.6 arcsec/px.
func makeTile(name string, raDeg, decDeg float64, w, h int, val float64) *SourceTile {
	fg := mgrid.NewFloatGrid(w, h)
	fg.Fill(val)

	hdr := mwcs.Header{
		Crval1: raDeg, Crval2: decDeg,
		Crpix1: float64(w) / 2.0, Crpix2: float64(h) / 2.0,
		Cdelt1: -0.001, Cdelt2: 0.001,
	}

	return &SourceTile{
		LoadFilename: name + ".tif",
		Data:         fg,
		WCS:          mwcs.NewWCS(hdr),
	}
}

// makeFrame: 100x100 px frame centered on (180,0), 0.1 deg fov.
func makeFrame() *MosaicFrame {
	return NewBlankFrame("m0", 180.0, 0.0, 0.1, 0.001, 0.0, [2]float64{-1.0, 1.0})
}

type fakeLoader struct {
	mu    sync.Mutex
	tiles map[string]*SourceTile
	loads []string
}

func newFakeLoader(tiles ...*SourceTile) *fakeLoader {
	fl := &fakeLoader{tiles: map[string]*SourceTile{}}
	for _, t := range tiles {
		fl.tiles[t.LoadFilename] = t
	}
	return fl
}

func (fl *fakeLoader)LoadImage(path string) (*SourceTile, error) {
	fl.mu.Lock()
	fl.loads = append(fl.loads, path)
	t, ok := fl.tiles[path]
	fl.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no such tile '%s'", path)
	}
	return t, nil
}

func (fl *fakeLoader)loaded() []string {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return append([]string{}, fl.loads...)
}

// gatedLoader blocks every load after the first, until released.
// Lets a test freeze a worker mid-batch.
type gatedLoader struct {
	inner   Loader
	mu      sync.Mutex
	nloads  int
	started chan string
	release chan struct{}
}

func (gl *gatedLoader)LoadImage(path string) (*SourceTile, error) {
	gl.mu.Lock()
	gl.nloads++
	first := gl.nloads == 1
	gl.mu.Unlock()

	if !first {
		gl.started <- path
		<-gl.release
	}
	return gl.inner.LoadImage(path)
}

type recordingStatus struct {
	mu    sync.Mutex
	texts []string
	fracs []float64
	dones int
}

func (rs *recordingStatus)Status(text string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.texts = append(rs.texts, text)
}

func (rs *recordingStatus)Progress(frac float64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.fracs = append(rs.fracs, frac)
}

func (rs *recordingStatus)Done(totalSec, processSec float64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.dones++
}

func (rs *recordingStatus)snapshot() ([]string, []float64, int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]string{}, rs.texts...), append([]float64{}, rs.fracs...), rs.dones
}

type recordingCanvas struct {
	mu          sync.Mutex
	frames      []string
	annotations []annotation
}

func (rc *recordingCanvas)AddImage(name string, fm *MosaicFrame) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.frames = append(rc.frames, name)
}

func (rc *recordingCanvas)Annotate(x, y float64, label string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.annotations = append(rc.annotations, annotation{x, y, label})
}
