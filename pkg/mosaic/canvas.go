package mosaic

import(
	"fmt"
	"log"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
)

// A Canvas is wherever the mosaic gets displayed. The session tells
// it when a new frame exists, and where tile labels should go. All
// calls happen under the session lock, so implementations don't need
// their own.
type Canvas interface {
	AddImage(name string, fm *MosaicFrame)
	Annotate(x, y float64, label string)
}

// A StatusSink receives progress and status reports. Fire-and-forget;
// the core never looks at a return value.
type StatusSink interface {
	Status(text string)
	Progress(frac float64)
	Done(totalSec, processSec float64)
}

type NopCanvas struct{}

func (nc NopCanvas)AddImage(name string, fm *MosaicFrame) {}
func (nc NopCanvas)Annotate(x, y float64, label string)   {}

// LogStatus just writes everything to the log.
type LogStatus struct{}

func (ls LogStatus)Status(text string)   { log.Printf("%s\n", text) }
func (ls LogStatus)Progress(frac float64) { log.Printf("progress %3.0f%%\n", frac*100.0) }
func (ls LogStatus)Done(totalSec, processSec float64) {
	log.Printf("Done. Total=%.2f Process=%.2f (sec)\n", totalSec, processSec)
}

type annotation struct {
	x, y  float64
	label string
}

// RenderCanvas is the headless stand-in for a display: it remembers
// the current frame and the annotations, and can render the lot to a
// PNG once the batch is over.
type RenderCanvas struct {
	Frame       *MosaicFrame
	annotations []annotation
}

func NewRenderCanvas() *RenderCanvas { return &RenderCanvas{} }

func (rc *RenderCanvas)AddImage(name string, fm *MosaicFrame) {
	// A new frame means a new picture; the old labels go with the old frame
	rc.Frame = fm
	rc.annotations = nil
}

func (rc *RenderCanvas)Annotate(x, y float64, label string) {
	rc.annotations = append(rc.annotations, annotation{x, y, label})
}

// Render writes the frame as a gamma-scaled grayscale PNG, with each
// tile label drawn at its centroid in its own color. Call it after
// the batch has drained - it reads the frame buffer unlocked.
func (rc *RenderCanvas)Render(filename string) error {
	if rc.Frame == nil {
		return fmt.Errorf("render '%s': no mosaic frame", filename)
	}

	dc := gg.NewContextForImage(rc.Frame.Data.ToImg())

	for i, a := range rc.annotations {
		// March around the hue wheel so neighboring labels differ
		dc.SetColor(colorful.Hsv(float64((i*47)%360), 0.9, 0.9))
		dc.DrawStringAnchored(a.label, a.x, a.y, 0.5, 0.5)
	}

	return dc.SavePNG(filename)
}
