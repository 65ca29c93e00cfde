// Package ticker drives piece descent. A Ticker fires a callback after an
// initial delay and then at a fixed interval, and can be paused without
// spinning.
package ticker

import (
	"sync"
	"time"
)

const (
	DefaultInterval     = 600 * time.Millisecond
	DefaultInitialDelay = 700 * time.Millisecond
)

type Ticker struct {
	InitialDelay time.Duration
	Interval     time.Duration

	onTick func()

	started bool
	paused  bool
	stopped bool

	// wake is signalled whenever paused or stopped changes.
	wake chan struct{}
	done chan struct{}

	sync.Mutex
}

// New returns a stopped Ticker calling onTick on every firing. onTick runs on
// the ticker goroutine and is responsible for its own locking.
func New(initialDelay, interval time.Duration, onTick func()) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if initialDelay < 0 {
		initialDelay = 0
	}

	return &Ticker{
		InitialDelay: initialDelay,
		Interval:     interval,
		onTick:       onTick,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
}

// Start launches the loop. When paused is true the loop blocks until Resume.
// A Ticker can only be started once.
func (t *Ticker) Start(paused bool) {
	t.Lock()
	defer t.Unlock()

	if t.started || t.stopped {
		return
	}

	t.started = true
	t.paused = paused

	go t.run()
}

func (t *Ticker) Pause() {
	t.setPaused(true)
}

func (t *Ticker) Resume() {
	t.setPaused(false)
}

func (t *Ticker) setPaused(paused bool) {
	t.Lock()
	defer t.Unlock()

	if t.stopped || t.paused == paused {
		return
	}

	t.paused = paused
	t.signal()
}

func (t *Ticker) Paused() bool {
	t.Lock()
	defer t.Unlock()

	return t.paused
}

// Stop ends the loop. It does not wait for an in-flight callback, so it may be
// called from within onTick.
func (t *Ticker) Stop() {
	t.Lock()
	defer t.Unlock()

	if t.stopped {
		return
	}

	t.stopped = true
	close(t.done)
}

func (t *Ticker) Stopped() bool {
	t.Lock()
	defer t.Unlock()

	return t.stopped
}

func (t *Ticker) signal() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// waitRunning blocks while paused. It returns false once stopped.
func (t *Ticker) waitRunning() bool {
	for {
		t.Lock()
		stopped, paused := t.stopped, t.paused
		t.Unlock()

		if stopped {
			return false
		} else if !paused {
			return true
		}

		select {
		case <-t.wake:
		case <-t.done:
			return false
		}
	}
}

func (t *Ticker) run() {
	delay := t.InitialDelay

	for {
		if !t.waitRunning() {
			return
		}

		timer := time.NewTimer(delay)
		select {
		case <-t.done:
			timer.Stop()
			return
		case <-t.wake:
			// Paused or resumed mid-wait: start over with a full wait so a
			// resume never catches up on missed ticks.
			timer.Stop()
			continue
		case <-timer.C:
		}

		t.Lock()
		fire := !t.paused && !t.stopped
		t.Unlock()

		if !fire {
			continue
		}

		t.onTick()
		delay = t.Interval
	}
}
