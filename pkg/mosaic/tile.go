package mosaic

import(
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/abworrall/skymosaic/pkg/mgrid"
	"github.com/abworrall/skymosaic/pkg/mwcs"
)

// A SourceTile is one loaded source image, on its way into the
// mosaic. It is owned by whichever worker is ingesting it, and
// discarded afterwards.
type SourceTile struct {
	LoadFilename string
	Data         mgrid.FloatGrid
	WCS          mwcs.WCS

	CapturedAt   time.Time // from EXIF, if the file had any; zero otherwise
}

func (t SourceTile)String() string {
	return fmt.Sprintf("%s: %dx%d, %s", t.Name(), t.Data.Dx(), t.Data.Dy(), t.WCS.Header)
}

// Name is the display name used for status text and annotations -
// the basename, shorn of its extension.
func (t SourceTile)Name() string {
	base := filepath.Base(t.LoadFilename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CenterSky is the sky position of the tile's central pixel.
func (t SourceTile)CenterSky() (raDeg, decDeg float64) {
	return t.WCS.PixToSky(float64(t.Data.Dx())/2.0, float64(t.Data.Dy())/2.0)
}

// A PreprocessFunc gets a chance to rewrite each tile before it is
// composited - e.g. flatfielding, bad column repair. The default is
// the identity.
type PreprocessFunc func(*SourceTile) *SourceTile
