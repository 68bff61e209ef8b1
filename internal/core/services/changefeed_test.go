package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeFeed_Notify(t *testing.T) {
	feed := NewChangeFeed()

	var bookEvents, loanEvents []string
	feed.OnChange("books", func(table string) {
		bookEvents = append(bookEvents, table)
	})
	feed.OnChange("loans", func(table string) {
		loanEvents = append(loanEvents, table)
	})

	feed.Notify("books")
	feed.Notify("loans")
	feed.Notify("loans")
	feed.Notify("patrons") // no subscriber, must not panic

	assert.Equal(t, []string{"books"}, bookEvents)
	assert.Equal(t, []string{"loans", "loans"}, loanEvents)
}

func TestChangeFeed_MultipleSubscribersPerTable(t *testing.T) {
	feed := NewChangeFeed()

	calls := 0
	feed.OnChange("loans", func(string) { calls++ })
	feed.OnChange("loans", func(string) { calls++ })

	feed.Notify("loans")
	assert.Equal(t, 2, calls)
}

func TestChangeFeed_FallbackTicker(t *testing.T) {
	feed := NewChangeFeed()
	feed.interval = 10 * time.Millisecond

	var mu sync.Mutex
	fired := 0
	feed.OnChange("books", func(string) {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	feed.Start()
	defer feed.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestChangeFeed_RestartResumesTicker(t *testing.T) {
	feed := NewChangeFeed()
	feed.interval = 10 * time.Millisecond

	var mu sync.Mutex
	fired := 0
	feed.OnChange("books", func(string) {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	feed.Start()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired >= 1
	}, time.Second, 5*time.Millisecond)
	feed.Stop()

	mu.Lock()
	fired = 0
	mu.Unlock()

	// Ticker must run again after a stop
	feed.Start()
	defer feed.Stop()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestChangeFeed_StartStopIdempotent(t *testing.T) {
	feed := NewChangeFeed()
	feed.interval = time.Hour

	feed.Start()
	feed.Start() // second start is a no-op
	feed.Stop()
	feed.Stop() // second stop is a no-op
}
