package services

import (
	"log"
	"sync"
	"time"
)

// FallbackInterval is the periodic refresh interval used when no
// change notification arrives.
const FallbackInterval = 30 * time.Second

// ChangeFunc is invoked when a table changes
type ChangeFunc func(table string)

// ChangeFeed is a single subscription point for data changes. Services
// call Notify after every successful mutation; subscribers register
// per-table callbacks. A fallback ticker fires all subscribers on a
// fixed interval so views converge even when notifications are missed.
type ChangeFeed struct {
	mu          sync.RWMutex
	subscribers map[string][]ChangeFunc
	interval    time.Duration
	stopChan    chan struct{}
	started     bool
}

// NewChangeFeed creates a change feed with the default fallback interval
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{
		subscribers: make(map[string][]ChangeFunc),
		interval:    FallbackInterval,
		stopChan:    make(chan struct{}),
	}
}

// OnChange subscribes a callback to mutations of a table
func (f *ChangeFeed) OnChange(table string, fn ChangeFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers[table] = append(f.subscribers[table], fn)
}

// Notify fans a table change out to its subscribers
func (f *ChangeFeed) Notify(table string) {
	f.mu.RLock()
	fns := f.subscribers[table]
	f.mu.RUnlock()

	for _, fn := range fns {
		fn(table)
	}
}

// Start launches the fallback ticker
func (f *ChangeFeed) Start() {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	// A fresh channel per run, the previous one is closed by Stop
	f.stopChan = make(chan struct{})
	stop := f.stopChan
	f.mu.Unlock()

	log.Printf("🚀 ChangeFeed started (fallback every %s)", f.interval)
	go f.runFallbackLoop(stop)
}

// Stop stops the fallback ticker
func (f *ChangeFeed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return
	}
	f.started = false
	close(f.stopChan)
	log.Println("🛑 ChangeFeed stopped")
}

func (f *ChangeFeed) runFallbackLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.fireAll()
		case <-stop:
			return
		}
	}
}

// fireAll invokes every subscriber as if its table changed
func (f *ChangeFeed) fireAll() {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for table, fns := range f.subscribers {
		for _, fn := range fns {
			fn(table)
		}
	}
}
