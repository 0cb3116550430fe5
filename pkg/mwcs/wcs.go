package mwcs

// A small linear WCS - enough to place individually-pointed images
// onto a shared mosaic frame. We only handle the classic
// CRVAL/CRPIX/CDELT/CROTA2 keywords; no SIP, no skew, no funny
// projections. Close to the frame center the tangent plane is flat
// enough that this is fine.

import(
	"fmt"
	"math"
)

// Header holds the sky-pointing keywords we care about, FITS naming.
type Header struct {
	Crval1 float64 `yaml:"crval1"` // RA at the reference pixel, degrees
	Crval2 float64 `yaml:"crval2"` // Dec at the reference pixel, degrees
	Crpix1 float64 `yaml:"crpix1"` // reference pixel, X
	Crpix2 float64 `yaml:"crpix2"` // reference pixel, Y
	Cdelt1 float64 `yaml:"cdelt1"` // degrees per pixel, X axis (sign = axis direction)
	Cdelt2 float64 `yaml:"cdelt2"` // degrees per pixel, Y axis
	Crota2 float64 `yaml:"crota2"` // rotation of the pixel grid, degrees
}

func (h Header)String() string {
	return fmt.Sprintf("wcs[(%.4f,%.4f)deg @(%.1f,%.1f)px, cdelt(%g,%g), rot %.1f]",
		h.Crval1, h.Crval2, h.Crpix1, h.Crpix2, h.Cdelt1, h.Cdelt2, h.Crota2)
}

// RotationAndScale pulls the rotation and the per-axis scales out of
// the header, the values needed to derive a new mosaic frame geometry.
func (h Header)RotationAndScale() (rotDeg, cdelt1, cdelt2 float64) {
	return h.Crota2, h.Cdelt1, h.Cdelt2
}

func (h Header)Validate() error {
	if h.Cdelt1 == 0.0 || h.Cdelt2 == 0.0 {
		return fmt.Errorf("wcs has zero pixel scale: %s", h)
	}
	return nil
}

// WCS maps between pixel space and (RA,Dec) degrees, via a pair of
// affine transforms derived from the header.
type WCS struct {
	Header
	pix2plane Aff3 // pixel -> tangent plane offsets from crval, degrees
	plane2pix Aff3
}

func NewWCS(h Header) WCS {
	// Compose back to front: translate to the reference pixel, scale
	// to degrees, then rotate the grid
	fwd := Identity().Rotate(h.Crota2).Scale(h.Cdelt1, h.Cdelt2).Translate(-h.Crpix1, -h.Crpix2)
	inv := Identity().Translate(h.Crpix1, h.Crpix2).Scale(1.0/h.Cdelt1, 1.0/h.Cdelt2).Rotate(-h.Crota2)

	return WCS{Header:h, pix2plane:fwd, plane2pix:inv}
}

// PixToSky maps a pixel position to (RA,Dec) in degrees. The RA
// offset is stretched by 1/cos(dec), since a degree of RA shrinks
// towards the poles.
func (w WCS)PixToSky(x, y float64) (raDeg, decDeg float64) {
	dx, dy := w.pix2plane.Apply(x, y)
	decDeg = w.Crval2 + dy
	raDeg = w.Crval1 + dx / cosDeg(w.Crval2)
	return
}

func (w WCS)SkyToPix(raDeg, decDeg float64) (x, y float64) {
	dx := (raDeg - w.Crval1) * cosDeg(w.Crval2)
	dy := decDeg - w.Crval2
	return w.plane2pix.Apply(dx, dy)
}

// AngularSepDeg is the great-circle distance between two sky
// positions, in degrees (haversine form, stable for small angles).
func AngularSepDeg(ra1, dec1, ra2, dec2 float64) float64 {
	sinDec := sinDeg((dec2 - dec1) / 2.0)
	sinRa := sinDeg((ra2 - ra1) / 2.0)

	a := sinDec*sinDec + cosDeg(dec1)*cosDeg(dec2)*sinRa*sinRa
	if a > 1.0 { a = 1.0 }

	return 2.0 * math.Asin(math.Sqrt(a)) * 180.0 / math.Pi
}

func cosDeg(deg float64) float64 { return math.Cos(deg * math.Pi / 180.0) }
func sinDeg(deg float64) float64 { return math.Sin(deg * math.Pi / 180.0) }
