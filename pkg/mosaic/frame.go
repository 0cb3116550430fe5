package mosaic

import(
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/abworrall/skymosaic/pkg/mgrid"
	"github.com/abworrall/skymosaic/pkg/mwcs"
)

// A MosaicFrame is the in-progress composite image: a float pixel
// buffer with its own coordinate system. There is at most one current
// frame per session, and every mutation of it happens under the
// session lock.
type MosaicFrame struct {
	Name   string
	Data   mgrid.FloatGrid
	WCS    mwcs.WCS
	FovDeg float64

	// BgRef is the median of the first image placed into this frame;
	// computed once at frame creation and reused for every
	// background-match in the frame's lifetime.
	BgRef  float64
}

// NewBlankFrame builds an empty frame covering fovDeg at the given
// pixel scale, centered on (raDeg,decDeg). axisSigns carries the
// sign convention of the founding image's cdelts, so the frame's
// axes run the same way.
func NewBlankFrame(name string, raDeg, decDeg, fovDeg, pxScale, rotDeg float64, axisSigns [2]float64) *MosaicFrame {
	px := int(math.Ceil(fovDeg / pxScale))

	h := mwcs.Header{
		Crval1: raDeg,
		Crval2: decDeg,
		Crpix1: float64(px) / 2.0,
		Crpix2: float64(px) / 2.0,
		Cdelt1: axisSigns[0] * pxScale,
		Cdelt2: axisSigns[1] * pxScale,
		Crota2: rotDeg,
	}

	return &MosaicFrame{
		Name:   name,
		Data:   mgrid.NewFloatGrid(px, px),
		WCS:    mwcs.NewWCS(h),
		FovDeg: fovDeg,
	}
}

func (fm *MosaicFrame)String() string {
	return fmt.Sprintf("%s: %dx%d px, fov %.2f deg, bgref %.1f, %s",
		fm.Name, fm.Data.Dx(), fm.Data.Dy(), fm.FovDeg, fm.BgRef, fm.WCS.Header)
}

// CenterSky is the sky position of the frame's central pixel.
func (fm *MosaicFrame)CenterSky() (raDeg, decDeg float64) {
	return fm.WCS.PixToSky(float64(fm.Data.Dx())/2.0, float64(fm.Data.Dy())/2.0)
}

// Implement golang's image.Image interface
func (fm *MosaicFrame)ColorModel() color.Model { return hdrcolor.RGBModel }
func (fm *MosaicFrame)Bounds() image.Rectangle { return fm.Data.Bounds() }
func (fm *MosaicFrame)At(x, y int) color.Color { return fm.HDRAt(x, y) }

// Implement hdr.Image interface (a superset of image.Image)
func (fm *MosaicFrame)Size() int { return fm.Data.Dx() * fm.Data.Dy() }
func (fm *MosaicFrame)HDRAt(x, y int) hdrcolor.Color {
	v := fm.Data.Get(x, y) / float64(0xFFFF)
	return hdrcolor.RGB{R: v, G: v, B: v}
}

func WriteHDR(img hdr.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return rgbe.Encode(writer, img)
	}
}

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}
