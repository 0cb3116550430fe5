package mosaic

import(
	"fmt"
	"image"
	"math"
)

// Inline composites one tile into the frame's buffer, and returns
// the region of the frame actually written.
//
// The tile is placed where its center's sky position falls in frame
// pixel space. trimPx is cropped from all four tile edges first. If
// bgRef is non-nil the tile's values are shifted by
// (bgRef - tileMedian), so background levels line up across tiles.
// merge=true sums into existing frame pixels (exposure co-addition);
// merge=false overwrites them (last writer wins).
//
// Writes are clipped to the frame: a partially-out-of-bounds tile
// contributes just its in-bounds part, and a fully-out-of-bounds
// tile is a zero-area no-op, not an error.
func Inline(fm *MosaicFrame, t *SourceTile, bgRef *float64, trimPx int, merge bool) (image.Rectangle, error) {
	w, h := t.Data.Dx(), t.Data.Dy()

	if trimPx < 0 {
		return image.Rectangle{}, fmt.Errorf("inline '%s': negative trim %d", t.Name(), trimPx)
	}
	if w <= 2*trimPx || h <= 2*trimPx {
		return image.Rectangle{}, fmt.Errorf("inline '%s': %dx%d tile vanishes under trim %d", t.Name(), w, h, trimPx)
	}

	trimmed := image.Rect(trimPx, trimPx, w-trimPx, h-trimPx)

	// Lift the tile's center into frame pixel space, and hang the
	// trimmed tile around it
	raDeg, decDeg := t.CenterSky()
	cx, cy := fm.WCS.SkyToPix(raDeg, decDeg)

	xlo := int(math.Round(cx - float64(trimmed.Dx())/2.0))
	ylo := int(math.Round(cy - float64(trimmed.Dy())/2.0))
	placed := image.Rect(xlo, ylo, xlo+trimmed.Dx(), ylo+trimmed.Dy())

	clipped := placed.Intersect(fm.Data.Bounds())
	if clipped.Empty() {
		return image.Rectangle{}, nil
	}

	shift := 0.0
	if bgRef != nil {
		shift = *bgRef - t.Data.MedianOfRect(trimmed)
	}

	for y:=clipped.Min.Y; y<clipped.Max.Y; y++ {
		for x:=clipped.Min.X; x<clipped.Max.X; x++ {
			// Walk back from frame coords to trimmed-tile coords
			tx := x - placed.Min.X + trimmed.Min.X
			ty := y - placed.Min.Y + trimmed.Min.Y

			v := t.Data.Get(tx, ty) + shift
			if merge {
				v += fm.Data.Get(x, y)
			}
			fm.Data.Set(x, y, v)
		}
	}

	return clipped, nil
}
