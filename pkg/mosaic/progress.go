package mosaic

import(
	"time"

	"github.com/codahale/hdrhistogram"
)

// progress is the shared state for one batch. All fields are read
// and written under the session lock, alongside the frame itself.
type progress struct {
	totalFiles  int
	attempted   int // every path we finished with, ingested or not

	startTime   time.Time
	readElapsed time.Duration // cumulative time spent in the loader

	// Per-tile wall time, load through ingest, in ms
	latencies   *hdrhistogram.Histogram
}

func newProgress(total int) *progress {
	return &progress{
		totalFiles: total,
		startTime:  time.Now(),
		latencies:  hdrhistogram.New(1, 10*60*1000, 3),
	}
}

func (p *progress)frac() float64 {
	return float64(p.attempted) / float64(p.totalFiles)
}

func (p *progress)done() bool {
	return p.attempted == p.totalFiles
}

func (p *progress)record(perTile time.Duration) {
	_ = p.latencies.RecordValue(perTile.Milliseconds()) // out of range, don't care
}
