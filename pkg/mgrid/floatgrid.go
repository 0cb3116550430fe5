package mgrid

import(
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/skypies/util/histogram"
	"gonum.org/v1/gonum/stat"
)

// A FloatGrid is a grid of float64 pixel values, with some
// operations. Mosaic frames and source tiles both carry their pixel
// data in one of these; values are raw counts in [0, 0xFFFF].
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (fg *FloatGrid)Set(x, y int, v float64) { fg.values[fg.stride*y + x] = v }
func (fg *FloatGrid)Get(x, y int) float64    { return fg.values[fg.stride*y + x] }
func (fg *FloatGrid)Dx() int                 { return fg.stride }
func (fg *FloatGrid)Dy() int                 { return len(fg.values) / fg.stride }
func (fg *FloatGrid)Bounds() image.Rectangle { return image.Rect(0, 0, fg.Dx(), fg.Dy()) }

func (fg *FloatGrid)In(x, y int) bool {
	return x >= 0 && y >= 0 && x < fg.Dx() && y < fg.Dy()
}

func (g1 *FloatGrid)Copy() *FloatGrid {
	g2 := FloatGrid{stride: g1.stride, values:make([]float64, len(g1.values))}
	copy(g2.values, g1.values)
	return &g2
}

func (fg *FloatGrid)Fill(v float64) {
	for i:=0; i<len(fg.values); i++ {
		fg.values[i] = v
	}
}

// Median is what we use as a background level - robust against the
// few bright pixels that are actual stars.
func (fg *FloatGrid)Median() float64 {
	if len(fg.values) == 0 { return 0.0 }

	vals := make([]float64, len(fg.values))
	copy(vals, fg.values)
	sort.Float64s(vals)

	return stat.Quantile(0.5, stat.Empirical, vals, nil)
}

// MedianOfRect takes the median over just the given region,
// intersected with the grid.
func (fg *FloatGrid)MedianOfRect(r image.Rectangle) float64 {
	r = r.Intersect(fg.Bounds())
	if r.Empty() { return 0.0 }

	vals := make([]float64, 0, r.Dx()*r.Dy())
	for y:=r.Min.Y; y<r.Max.Y; y++ {
		for x:=r.Min.X; x<r.Max.X; x++ {
			vals = append(vals, fg.Get(x, y))
		}
	}
	sort.Float64s(vals)

	return stat.Quantile(0.5, stat.Empirical, vals, nil)
}

func (fg *FloatGrid)MinMax() (float64, float64) {
	min := math.MaxFloat64
	max := -1.0 * min

	for i:=0 ; i<len(fg.values) ; i++ {
		if fg.values[i] > max { max = fg.values[i] }
		if fg.values[i] < min { min = fg.values[i] }
	}
	return min, max
}

func (fg *FloatGrid)Stats() string {
	min, max := fg.MinMax()

	// Histogram the log2 of the values, to see how the exposure is spread
	hist := histogram.Histogram{NumBuckets:16, ValMin:0, ValMax:16}
	for i:=0 ; i<len(fg.values) ; i++ {
		if fg.values[i] > 1.0 {
			hist.Add(histogram.ScalarVal(int(math.Log2(fg.values[i]))))
		}
	}

	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}, log2 %v]", fg.Dx(), fg.Dy(), min, max, hist)
}

// ToImg renders a simple grayscale, based on the range of values in
// the grid, gamma scaling the gray to look normal for human vision
func (fg *FloatGrid)ToImg() *image.RGBA64 {
	min, max := fg.MinMax()
	if max <= min { max = min + 1.0 }

	img := image.NewRGBA64(image.Rectangle{Max:image.Point{fg.Dx(), fg.Dy()}})
	for x:=0; x<fg.Dx(); x++ {
		for y:=0; y<fg.Dy(); y++ {
			gray := GammaExpand_F64((fg.Get(x,y) - min) / (max - min))
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	return img
}

// GammaExpand_F64 applies the sRGB gamma expansion to a unit float
func GammaExpand_F64(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}
