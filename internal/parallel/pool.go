package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// minBandRows is the smallest band handed to a worker. Splitting finer
// costs more in scheduling than the rows take to fill.
const minBandRows = 16

// WorkerPool is a fixed set of goroutines that fill row bands of a buffer.
//
// All workers pull from one shared queue, so a slow band never leaves other
// workers idle while work remains.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	jobs    chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &WorkerPool{
		workers: workers,
		jobs:    make(chan func(), workers*2),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			p.drain()
			return
		case job := <-p.jobs:
			job()
		}
	}
}

// drain runs jobs queued before Close.
func (p *WorkerPool) drain() {
	for {
		select {
		case job := <-p.jobs:
			job()
		default:
			return
		}
	}
}

// ExecuteAll runs every item on the pool and waits for all of them.
// If the pool is closed, this is a no-op.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 || !p.running.Load() {
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(work))
	for _, fn := range work {
		job := func() {
			defer wg.Done()
			fn()
		}
		select {
		case p.jobs <- job:
		case <-p.done:
			wg.Done()
		}
	}
	wg.Wait()
}

// Band is a half-open row range [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Bands splits rows into at most Workers() contiguous bands of at least
// minBandRows rows each (the last band may be shorter).
func (p *WorkerPool) Bands(rows int) []Band {
	if rows <= 0 {
		return nil
	}
	n := min(p.workers, max(rows/minBandRows, 1))
	size := (rows + n - 1) / n

	bands := make([]Band, 0, n)
	for y := 0; y < rows; y += size {
		bands = append(bands, Band{Y0: y, Y1: min(y+size, rows)})
	}
	return bands
}

// ForEachBand calls fn for every band of rows and waits for completion.
// On a closed pool, or when there is only one band, fn runs inline.
func (p *WorkerPool) ForEachBand(rows int, fn func(y0, y1 int)) {
	bands := p.Bands(rows)
	if len(bands) <= 1 || !p.running.Load() {
		if rows > 0 {
			fn(0, rows)
		}
		return
	}

	work := make([]func(), len(bands))
	for i, b := range bands {
		work[i] = func() { fn(b.Y0, b.Y1) }
	}
	p.ExecuteAll(work)
}

// Close stops the workers after queued jobs finish.
// Close is safe to call multiple times. Callers must not close a pool while
// an ExecuteAll on it is still in progress.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
