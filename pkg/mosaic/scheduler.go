package mosaic

import(
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// A Scheduler runs batches of paths against a shared session. Each
// batch: load paths[0] synchronously to establish/validate the frame,
// then fan the rest out across NumWorkers goroutines, each ingesting
// its share under the session lock.
type Scheduler struct {
	sess   *Session
	loader Loader
	status StatusSink

	mu     sync.Mutex // guards cancel
	cancel context.CancelFunc
}

func NewScheduler(sess *Session, loader Loader) *Scheduler {
	return &Scheduler{
		sess:   sess,
		loader: loader,
		status: sess.status,
	}
}

// Stop cancels the batch currently in flight. Cooperative: a tile
// already being ingested completes, the rest are abandoned. Already
// ingested tiles stay in the frame, which remains usable.
func (sch *Scheduler)Stop() {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	if sch.cancel != nil {
		sch.cancel()
	}
}

// Mosaic runs one batch to completion (or cancellation). It blocks
// until every worker has drained its group. Per-tile load/ingest
// failures are reported and skipped; only a bad configuration or a
// failure to load the priming image abort the batch.
func (sch *Scheduler)Mosaic(ctx context.Context, paths []string, cfg Settings, newMosaic bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	// Each batch is one drop of files; the setting makes every drop
	// start its own mosaic rather than extend the current one
	newMosaic = newMosaic || cfg.DropCreatesNewMosaic

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sch.mu.Lock()
	sch.cancel = cancel // the previous batch's cancellation doesn't carry over
	sch.mu.Unlock()

	prog := newProgress(len(paths))
	sch.sess.beginBatch()
	sch.status.Progress(0.0)

	// Priming: paths[0] establishes or validates the frame geometry,
	// so it can never run concurrently with anything else
	tRead := time.Now()
	tile, err := sch.loader.LoadImage(paths[0])
	if err != nil {
		return fmt.Errorf("prime '%s': %v", paths[0], err)
	}

	sch.sess.mu.Lock()
	prog.readElapsed += time.Since(tRead)
	if sch.sess.shouldStartNewFrame(tile, newMosaic, cfg.FovDeg) {
		sch.sess.createFrame(tile, cfg.FovDeg)
	}
	if _, err := sch.sess.ingestOne(tile, cfg); err != nil {
		sch.status.Status(fmt.Sprintf("Failed to ingest '%s': %v", tile.Name(), err))
	}
	sch.noteAttempted(prog, time.Since(tRead))
	sch.sess.mu.Unlock()

	// Fan out: one worker per contiguous group of the remainder
	g, ctx := errgroup.WithContext(ctx)
	for _, group := range splitN(paths[1:], cfg.NumWorkers) {
		group := group
		g.Go(func() error {
			sch.mosaicSome(ctx, group, cfg, prog)
			return nil
		})
	}

	return g.Wait()
}

// mosaicSome is one worker draining its group, in order. Per-tile
// errors are reported and skipped - a bad tile never takes down the
// batch. The cancellation check happens between tiles, never mid-tile.
func (sch *Scheduler)mosaicSome(ctx context.Context, paths []string, cfg Settings, prog *progress) {
	for _, path := range paths {
		if ctx.Err() != nil {
			break // the rest of this group is abandoned, not retried
		}

		tStart := time.Now()
		tile, err := sch.loader.LoadImage(path)
		readT := time.Since(tStart)

		sch.sess.mu.Lock()
		prog.readElapsed += readT
		if err != nil {
			sch.status.Status(fmt.Sprintf("Failed to load '%s': %v", path, err))
		} else if _, err := sch.sess.ingestOne(tile, cfg); err != nil {
			sch.status.Status(fmt.Sprintf("Failed to ingest '%s': %v", tile.Name(), err))
		}
		sch.noteAttempted(prog, time.Since(tStart))
		sch.sess.mu.Unlock()
	}
}

// noteAttempted bumps the attempted count and pushes a progress
// update. The last tile triggers the completion report - race free,
// because the caller holds the session lock. The fraction tracks
// attempted paths, so it reaches 1.0 even when some tiles were
// skipped; sess.ingestCount holds the success count.
func (sch *Scheduler)noteAttempted(prog *progress, perTile time.Duration) {
	prog.attempted++
	prog.record(perTile)
	sch.status.Progress(prog.frac())

	if prog.done() {
		sch.status.Done(time.Since(prog.startTime).Seconds(), sch.sess.processElapsed.Seconds())
		sch.status.Status(fmt.Sprintf("Ingested %d/%d files. Read=%.2fs, per-tile p50=%dms p99=%dms",
			sch.sess.ingestCount, prog.totalFiles, prog.readElapsed.Seconds(),
			prog.latencies.ValueAtQuantile(50), prog.latencies.ValueAtQuantile(99)))
	}
}

// splitN partitions paths into at most n contiguous groups whose
// sizes differ by at most one, earlier groups taking the extra.
// Concatenating the groups in order gives back paths exactly.
func splitN(paths []string, n int) [][]string {
	if n < 1 {
		n = 1
	}

	groups := [][]string{}
	base, rem := len(paths)/n, len(paths)%n

	i := 0
	for g:=0; g<n; g++ {
		sz := base
		if g < rem { sz++ }
		if sz == 0 { continue }
		groups = append(groups, paths[i:i+sz])
		i += sz
	}

	return groups
}
