package render

import (
	"sync"
	"time"
)

// DefaultFrameInterval is one display refresh at 60Hz
const DefaultFrameInterval = time.Second / 60

type timer interface {
	Stop() bool
}

// FrameScheduler coalesces redraw requests so that at most one draw runs per
// frame interval. Any number of Schedule calls before the next frame boundary
// collapse into a single call of the draw function.
type FrameScheduler struct {
	interval time.Duration
	draw     func()

	mu      sync.Mutex
	epoch   time.Time
	pending timer
	seq     uint64
	frames  uint64
	stopped bool

	now       func() time.Time
	afterFunc func(time.Duration, func()) timer
}

// NewFrameScheduler creates a scheduler calling draw at most once per interval.
// draw must read current state itself; nothing is captured at schedule time.
func NewFrameScheduler(interval time.Duration, draw func()) *FrameScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameScheduler{
		interval: interval,
		draw:     draw,
		epoch:    time.Now(),
		now:      time.Now,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
	}
}

// Schedule cancels any pending, not yet started draw and requests exactly one
// draw at the next frame boundary. It never blocks on the draw itself.
func (fs *FrameScheduler) Schedule() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.stopped {
		return
	}

	if fs.pending != nil {
		fs.pending.Stop()
	}

	fs.seq++
	seq := fs.seq
	fs.pending = fs.afterFunc(fs.untilNextFrame(), func() { fs.fire(seq) })
}

// untilNextFrame returns the delay to the next multiple of interval since epoch
func (fs *FrameScheduler) untilNextFrame() time.Duration {
	elapsed := fs.now().Sub(fs.epoch)
	if elapsed < 0 {
		return fs.interval
	}
	return fs.interval - elapsed%fs.interval
}

func (fs *FrameScheduler) fire(seq uint64) {
	fs.mu.Lock()
	if fs.stopped || seq != fs.seq {
		// Superseded by a later Schedule
		fs.mu.Unlock()
		return
	}
	fs.pending = nil
	fs.frames++
	fs.mu.Unlock()

	fs.draw()
}

// Pending reports whether a draw is scheduled
func (fs *FrameScheduler) Pending() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.pending != nil
}

// Frames returns the number of draws executed
func (fs *FrameScheduler) Frames() uint64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.frames
}

// Stop cancels pending work. Later Schedule calls are ignored.
func (fs *FrameScheduler) Stop() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.stopped = true
	if fs.pending != nil {
		fs.pending.Stop()
		fs.pending = nil
	}
}
