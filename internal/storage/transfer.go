package storage

import (
	"sync"
)

const progressBuffer = 16

// Transfer is the handle of one in-flight object upload. Progress values are percentages
// in [0, 100]. When the buffer is full the oldest pending value is dropped, so a slow reader
// always sees the latest figure. Progress is closed before Done delivers its single result.
type Transfer struct {
	mu       sync.Mutex
	progress chan float64
	done     chan error
	cancel   func()
	last     float64
	reported bool
	finished bool
}

func NewTransfer(cancel func()) *Transfer {
	if cancel == nil {
		cancel = func() {}
	}
	return &Transfer{
		progress: make(chan float64, progressBuffer),
		done:     make(chan error, 1),
		cancel:   cancel,
	}
}

func (t *Transfer) Progress() <-chan float64 {
	return t.progress
}

func (t *Transfer) Done() <-chan error {
	return t.done
}

// Cancel aborts the underlying request. Safe to call more than once and after completion.
func (t *Transfer) Cancel() {
	t.cancel()
}

// Report publishes a new percentage. Values lower than the last reported one are ignored.
func (t *Transfer) Report(pct float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	pct = clampPercent(pct)
	if t.reported && pct <= t.last {
		return
	}
	t.last = pct
	t.reported = true
	t.push(pct)
}

// Finish ends the transfer. A nil error reports 100% before completing.
func (t *Transfer) Finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return
	}
	if err == nil && (!t.reported || t.last < 100) {
		t.last = 100
		t.reported = true
		t.push(100)
	}
	t.finished = true
	close(t.progress)
	t.done <- err
	close(t.done)
}

func (t *Transfer) push(pct float64) {
	for {
		select {
		case t.progress <- pct:
			return
		default:
		}
		select {
		case <-t.progress:
		default:
		}
	}
}

func clampPercent(pct float64) float64 {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
