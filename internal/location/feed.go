package location

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DebounceWindow is the quiet period after the last keystroke before a
// search is issued.
const DebounceWindow = 500 * time.Millisecond

// Searcher is implemented by *Resolver.
type Searcher interface {
	SearchPlaces(ctx context.Context, query string, bias *Coordinates, sessionToken string) ([]PlaceSuggestion, error)
}

// Result is delivered for the latest query only.
type Result struct {
	Seq         uint64
	Query       string
	Suggestions []PlaceSuggestion
	Err         error
}

// SuggestionFeed debounces one address input field. Each Input bumps a
// request id; a search runs once the window elapses, and its result is
// dropped if a newer Input arrived in the meantime.
//
// The feed owns the provider session token for its field. Every search
// until EndSession shares one token.
//
// deliver runs on the feed's goroutine and must not call back into the feed.
type SuggestionFeed struct {
	searcher Searcher
	window   time.Duration
	deliver  func(Result)

	// deliverMu orders deliveries against Input and Close, so a result is
	// never handed out once a newer Input has returned.
	deliverMu sync.Mutex

	mu      sync.Mutex
	seq     uint64
	session string
	timer   *time.Timer
	cancel  context.CancelFunc
	closed  bool
}

// NewSuggestionFeed builds a feed. A non-positive window uses DebounceWindow.
func NewSuggestionFeed(searcher Searcher, window time.Duration, deliver func(Result)) *SuggestionFeed {
	if window <= 0 {
		window = DebounceWindow
	}
	return &SuggestionFeed{searcher: searcher, window: window, deliver: deliver}
}

// Input records a keystroke and returns its request id.
func (f *SuggestionFeed) Input(query string, bias *Coordinates) uint64 {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return f.seq
	}

	f.seq++
	seq := f.seq
	if f.session == "" {
		f.session = uuid.NewString()
	}
	token := f.session
	f.stopLocked()
	f.timer = time.AfterFunc(f.window, func() { f.fire(seq, query, bias, token) })
	return seq
}

// Latest returns the id of the most recent Input.
func (f *SuggestionFeed) Latest() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}

// EndSession returns the current session token, possibly empty, and starts
// a fresh one with the next Input. Pass the returned token to the details
// lookup of the chosen suggestion.
func (f *SuggestionFeed) EndSession() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := f.session
	f.session = ""
	return token
}

// Close stops pending timers and cancels any in-flight search. No result is
// delivered after Close returns.
func (f *SuggestionFeed) Close() {
	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.stopLocked()
}

func (f *SuggestionFeed) stopLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *SuggestionFeed) current(seq uint64) bool {
	return !f.closed && seq == f.seq
}

func (f *SuggestionFeed) fire(seq uint64, query string, bias *Coordinates, token string) {
	f.mu.Lock()
	if !f.current(seq) {
		f.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.mu.Unlock()

	suggestions, err := f.searcher.SearchPlaces(ctx, query, bias, token)
	cancel()

	f.deliverMu.Lock()
	defer f.deliverMu.Unlock()
	f.mu.Lock()
	fresh := f.current(seq)
	if fresh {
		f.cancel = nil
	}
	f.mu.Unlock()
	if !fresh {
		return
	}
	f.deliver(Result{Seq: seq, Query: query, Suggestions: suggestions, Err: err})
}
