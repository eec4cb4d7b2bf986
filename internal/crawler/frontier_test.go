package crawler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontierAdmitDeduplicates(t *testing.T) {
	f := NewFrontier()

	assert.True(t, f.Admit("https://example.com/a", 0))
	assert.False(t, f.Admit("https://example.com/a", 0), "already queued")
	assert.True(t, f.IsQueued("https://example.com/a"))
	assert.False(t, f.IsVisited("https://example.com/a"))
}

func TestFrontierNextMarksVisited(t *testing.T) {
	f := NewFrontier()
	f.Admit("https://example.com/a", 2)

	target, ok := f.Next()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a", target.URL)
	assert.Equal(t, 2, target.Depth)

	// Dequeue moves the URL from queued to visited atomically
	assert.False(t, f.IsQueued(target.URL))
	assert.True(t, f.IsVisited(target.URL))

	// A visited URL can never be admitted again, even mid-fetch
	assert.False(t, f.Admit(target.URL, 3))
}

func TestFrontierFIFOOrder(t *testing.T) {
	f := NewFrontier()
	f.Admit("https://example.com/1", 0)
	f.Admit("https://example.com/2", 1)
	f.Admit("https://example.com/3", 1)

	for _, expected := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		target, ok := f.Next()
		require.True(t, ok)
		assert.Equal(t, expected, target.URL)
	}
}

// The frontier closes itself when every admitted target is processed.
func TestFrontierClosesWhenDrained(t *testing.T) {
	f := NewFrontier()
	f.Admit("https://example.com/a", 0)
	f.Admit("https://example.com/b", 0)

	for i := 0; i < 2; i++ {
		_, ok := f.Next()
		require.True(t, ok)
		f.MarkProcessed()
	}

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("frontier did not close after draining")
	}

	_, ok := f.Next()
	assert.False(t, ok, "Next should return false after close")
	assert.False(t, f.Admit("https://example.com/c", 0), "closed frontier rejects admissions")
}

func TestFrontierCloseReleasesBlockedWorkers(t *testing.T) {
	f := NewFrontier()

	released := make(chan bool)
	go func() {
		_, ok := f.Next()
		released <- ok
	}()

	// Give the goroutine time to block on the empty queue
	time.Sleep(20 * time.Millisecond)
	f.Close()

	select {
	case ok := <-released:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("blocked worker was not released by Close")
	}
}

// Concurrent admissions of the same canonical URL must produce exactly one
// unit of work.
func TestFrontierConcurrentAdmission(t *testing.T) {
	f := NewFrontier()

	const goroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if f.Admit("https://example.com/contended", 1) {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted, "exactly one admission should win")

	target, ok := f.Next()
	require.True(t, ok)
	assert.Equal(t, "https://example.com/contended", target.URL)
}

func TestFrontierPendingCountSurvivesRequeues(t *testing.T) {
	f := NewFrontier()
	f.Admit("https://example.com/a", 0)

	target, ok := f.Next()
	require.True(t, ok)

	// Worker discovers a new link before finishing its own target
	f.Admit("https://example.com/b", target.Depth+1)
	f.MarkProcessed()

	select {
	case <-f.Done():
		t.Fatal("frontier closed with work still pending")
	default:
	}

	_, ok = f.Next()
	require.True(t, ok)
	f.MarkProcessed()

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("frontier did not close after all work completed")
	}
}

func TestFrontierVisitedCount(t *testing.T) {
	f := NewFrontier()
	f.Admit("https://example.com/a", 0)
	f.Admit("https://example.com/b", 0)

	assert.Equal(t, 0, f.VisitedCount())

	_, _ = f.Next()
	assert.Equal(t, 1, f.VisitedCount())

	_, _ = f.Next()
	assert.Equal(t, 2, f.VisitedCount())
}
