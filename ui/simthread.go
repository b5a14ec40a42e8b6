package ui

import (
	"sync"
	"time"
)

// SimControl manages pause/resume/stop coordination between the Ebiten
// thread and the simulation goroutine.
type SimControl struct {
	mu       sync.Mutex
	pauseReq bool
	paused   bool
	running  bool
	stopReq  bool
	ackCh    chan struct{}
}

// NewSimControl creates a new simulation control.
func NewSimControl() *SimControl {
	return &SimControl{
		running: true,
		ackCh:   make(chan struct{}, 1),
	}
}

// RequestPause asks the simulation goroutine to pause and blocks until it
// acknowledges the pause.
func (sc *SimControl) RequestPause() {
	sc.mu.Lock()
	if sc.paused || sc.pauseReq {
		sc.mu.Unlock()
		return
	}
	sc.pauseReq = true
	sc.mu.Unlock()

	// Wait for sim goroutine to acknowledge
	<-sc.ackCh
}

// RequestResume tells the simulation goroutine to resume.
func (sc *SimControl) RequestResume() {
	sc.mu.Lock()
	sc.pauseReq = false
	sc.paused = false
	sc.mu.Unlock()
}

// CheckPause is called by the simulation goroutine between work units.
// If a pause has been requested, it sends an acknowledgment and spins
// until resumed or stopped. Returns false if the goroutine should exit.
func (sc *SimControl) CheckPause() bool {
	sc.mu.Lock()
	if !sc.running || sc.stopReq {
		sc.mu.Unlock()
		return false
	}
	if !sc.pauseReq {
		sc.mu.Unlock()
		return true
	}

	// Acknowledge pause request
	sc.paused = true
	sc.mu.Unlock()

	// Non-blocking send of ack (buffer size 1)
	select {
	case sc.ackCh <- struct{}{}:
	default:
	}

	// Spin-wait until resumed or stopped
	for {
		sc.mu.Lock()
		if !sc.running || sc.stopReq {
			sc.mu.Unlock()
			return false
		}
		if !sc.pauseReq {
			sc.paused = false
			sc.mu.Unlock()
			return true
		}
		sc.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
}

// Stop signals the simulation goroutine to exit.
func (sc *SimControl) Stop() {
	sc.mu.Lock()
	sc.running = false
	sc.stopReq = true
	// Also clear pause so CheckPause unblocks
	sc.pauseReq = false
	sc.mu.Unlock()
}

// ShouldRun returns true if the goroutine should continue running.
func (sc *SimControl) ShouldRun() bool {
	sc.mu.Lock()
	r := sc.running && !sc.stopReq
	sc.mu.Unlock()
	return r
}

// IsPaused returns true if the simulation goroutine is currently paused.
func (sc *SimControl) IsPaused() bool {
	sc.mu.Lock()
	p := sc.paused
	sc.mu.Unlock()
	return p
}
