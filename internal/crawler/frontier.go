package crawler

import "sync"

// Target is a unit of crawl work: a canonical URL and its distance from the
// seed. Targets are consumed exactly once and never mutated.
type Target struct {
	URL   string
	Depth int
}

// Frontier owns the shared crawl state: the FIFO work queue, the visited
// set (fetch attempted) and the queued set (admitted but not yet dequeued).
// All mutation happens under a single lock so the check-then-act admission
// sequence is atomic. A canonical URL appears in queued or visited at most
// once, and once visited it never leaves.
//
// Completion is tracked with a pending-work counter: Admit increments it and
// MarkProcessed decrements it. When it returns to zero the queue is
// necessarily empty and the frontier closes itself.
type Frontier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Target
	visited map[string]struct{}
	queued  map[string]struct{}
	pending int
	closed  bool
	done    chan struct{}
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	f := &Frontier{
		visited: make(map[string]struct{}),
		queued:  make(map[string]struct{}),
		done:    make(chan struct{}),
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Admit offers a canonical URL to the frontier. It returns true only when
// the URL was newly queued; URLs already queued or visited, or offered after
// close, are rejected. Two concurrent admissions of links normalising to the
// same canonical URL can never both succeed.
func (f *Frontier) Admit(url string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}
	if _, seen := f.visited[url]; seen {
		return false
	}
	if _, seen := f.queued[url]; seen {
		return false
	}

	f.queued[url] = struct{}{}
	f.queue = append(f.queue, Target{URL: url, Depth: depth})
	f.pending++
	f.cond.Signal()
	return true
}

// Next blocks until a target is available or the frontier closes. The
// returned target is marked visited before Next returns, under the same
// lock, so a slow or failing fetch cannot let a duplicate admission through.
// The second return value is false once the frontier is closed.
func (f *Frontier) Next() (Target, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.queue) == 0 && !f.closed {
		f.cond.Wait()
	}

	if f.closed {
		return Target{}, false
	}

	target := f.queue[0]
	f.queue = f.queue[1:]
	delete(f.queued, target.URL)
	f.visited[target.URL] = struct{}{}

	return target, true
}

// MarkProcessed signals that a dequeued target is finished, whether it
// succeeded, failed or was skipped. The frontier closes when the pending
// counter returns to zero.
func (f *Frontier) MarkProcessed() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending--
	if f.pending <= 0 {
		f.closeLocked()
	}
}

// Close releases all blocked workers and rejects further admissions. It is
// idempotent and safe to call from a cancellation path.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

func (f *Frontier) closeLocked() {
	if f.closed {
		return
	}
	f.closed = true
	close(f.done)
	f.cond.Broadcast()
}

// Done is closed when the frontier drains or is cancelled.
func (f *Frontier) Done() <-chan struct{} {
	return f.done
}

// IsVisited reports whether a fetch has been attempted for the URL.
func (f *Frontier) IsVisited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[url]
	return ok
}

// IsQueued reports whether the URL is admitted but not yet dequeued.
func (f *Frontier) IsQueued(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.queued[url]
	return ok
}

// VisitedCount returns the number of URLs whose fetch has been attempted.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
