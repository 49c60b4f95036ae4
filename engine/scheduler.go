/*
scheduler.go - Midnight rollover scheduler

PURPOSE:
  Watches the wall clock and rotates the daily log mirror when the
  calendar date changes, so a long-running process starts each day with
  a fresh file and an empty seen set.

DESIGN:
  - Background goroutine with a configurable check interval
  - Rollover is idempotent; checking more often than needed is harmless

USAGE:
  scheduler := engine.NewRolloverScheduler(eng)
  scheduler.Start()
  // ... later
  scheduler.Stop()
*/
package engine

import (
	"context"
	"log"
	"sync"
	"time"
)

// RolloverScheduler rotates the day log at date changes.
type RolloverScheduler struct {
	Engine        *Engine
	CheckInterval time.Duration

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRolloverScheduler creates a scheduler with a one-minute check
// interval.
func NewRolloverScheduler(e *Engine) *RolloverScheduler {
	return &RolloverScheduler{
		Engine:        e,
		CheckInterval: time.Minute,
		stop:          make(chan struct{}),
	}
}

// Start begins the background checks.
func (rs *RolloverScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)
	go rs.run()

	log.Printf("[Scheduler] started with check interval %v", rs.CheckInterval)
}

// Stop halts the scheduler and waits for the loop to exit.
func (rs *RolloverScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil

	log.Println("[Scheduler] stopped")
}

func (rs *RolloverScheduler) run() {
	defer rs.wg.Done()

	for {
		select {
		case <-rs.stop:
			return
		case <-rs.ticker.C:
			if err := rs.Engine.Rollover(context.Background(), time.Now()); err != nil {
				log.Printf("[Scheduler] rollover failed: %v", err)
			}
		}
	}
}
