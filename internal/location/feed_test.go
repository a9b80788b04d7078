package location

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingSearcher struct {
	mu      sync.Mutex
	queries []string
	tokens  []string
	started chan string
	hold    string
}

func newRecordingSearcher() *recordingSearcher {
	return &recordingSearcher{started: make(chan string, 16)}
}

func (s *recordingSearcher) SearchPlaces(ctx context.Context, query string, _ *Coordinates, sessionToken string) ([]PlaceSuggestion, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.tokens = append(s.tokens, sessionToken)
	s.mu.Unlock()
	s.started <- query

	if query == s.hold {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return []PlaceSuggestion{{PlaceID: query, Description: query}}, nil
}

func (s *recordingSearcher) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func (s *recordingSearcher) sessionTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

func awaitResult(t *testing.T, results <-chan Result) Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}
	return Result{}
}

func TestFeedDebouncesKeystrokes(t *testing.T) {
	searcher := newRecordingSearcher()
	results := make(chan Result, 4)
	feed := NewSuggestionFeed(searcher, 30*time.Millisecond, func(r Result) { results <- r })
	defer feed.Close()

	feed.Input("m", nil)
	feed.Input("mi", nil)
	feed.Input("mil", nil)
	last := feed.Input("milk", nil)

	select {
	case r := <-results:
		if r.Query != "milk" || r.Seq != last {
			t.Fatalf("unexpected result %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("no result delivered")
	}

	if calls := searcher.calls(); len(calls) != 1 || calls[0] != "milk" {
		t.Fatalf("expected a single search for milk, got %v", calls)
	}
}

func TestFeedDiscardsSupersededResults(t *testing.T) {
	searcher := newRecordingSearcher()
	searcher.hold = "dairy"
	results := make(chan Result, 4)
	feed := NewSuggestionFeed(searcher, 10*time.Millisecond, func(r Result) { results <- r })
	defer feed.Close()

	feed.Input("dairy", nil)
	select {
	case q := <-searcher.started:
		if q != "dairy" {
			t.Fatalf("unexpected first search %q", q)
		}
	case <-time.After(time.Second):
		t.Fatal("first search never started")
	}

	latest := feed.Input("dairy farm", nil)

	select {
	case r := <-results:
		if r.Seq != latest || r.Query != "dairy farm" {
			t.Fatalf("stale result delivered: %+v", r)
		}
		if len(r.Suggestions) != 1 {
			t.Fatalf("unexpected suggestions %+v", r.Suggestions)
		}
	case <-time.After(time.Second):
		t.Fatal("latest result never delivered")
	}

	select {
	case r := <-results:
		t.Fatalf("unexpected extra result %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFeedCloseStopsPendingSearch(t *testing.T) {
	searcher := newRecordingSearcher()
	feed := NewSuggestionFeed(searcher, 20*time.Millisecond, func(Result) {
		t.Errorf("delivered after close")
	})
	feed.Input("butter", nil)
	feed.Close()

	time.Sleep(60 * time.Millisecond)
	if calls := searcher.calls(); len(calls) != 0 {
		t.Fatalf("search ran after close: %v", calls)
	}
}

func TestFeedSessionTokenSpansSearchUntilEnded(t *testing.T) {
	searcher := newRecordingSearcher()
	results := make(chan Result, 4)
	feed := NewSuggestionFeed(searcher, 5*time.Millisecond, func(r Result) { results <- r })
	defer feed.Close()

	feed.Input("ghee", nil)
	awaitResult(t, results)
	feed.Input("ghee shop", nil)
	awaitResult(t, results)

	ended := feed.EndSession()
	if ended == "" {
		t.Fatalf("expected a session token")
	}
	if again := feed.EndSession(); again != "" {
		t.Fatalf("session should be cleared after end, got %q", again)
	}

	feed.Input("paneer", nil)
	awaitResult(t, results)

	tokens := searcher.sessionTokens()
	if len(tokens) != 3 {
		t.Fatalf("expected 3 searches, got %v", tokens)
	}
	if tokens[0] != ended || tokens[1] != ended {
		t.Fatalf("searches before the pick should share %q: %v", ended, tokens)
	}
	if tokens[2] == "" || tokens[2] == ended {
		t.Fatalf("expected a fresh token after the pick, got %v", tokens)
	}
}

func TestFeedsDoNotShareSessions(t *testing.T) {
	searcher := newRecordingSearcher()
	results := make(chan Result, 4)
	first := NewSuggestionFeed(searcher, 5*time.Millisecond, func(r Result) { results <- r })
	second := NewSuggestionFeed(searcher, 5*time.Millisecond, func(r Result) { results <- r })
	defer first.Close()
	defer second.Close()

	first.Input("curd", nil)
	awaitResult(t, results)
	second.Input("bread", nil)
	awaitResult(t, results)

	if a, b := first.EndSession(), second.EndSession(); a == "" || a == b {
		t.Fatalf("feeds should hold distinct tokens, got %q and %q", a, b)
	}
}

func TestInputWaitsForDeliveryInProgress(t *testing.T) {
	searcher := newRecordingSearcher()
	delivering := make(chan Result, 4)
	release := make(chan struct{})
	feed := NewSuggestionFeed(searcher, 5*time.Millisecond, func(r Result) {
		delivering <- r
		<-release
	})
	defer feed.Close()

	feed.Input("eggs", nil)
	var r Result
	select {
	case r = <-delivering:
	case <-time.After(time.Second):
		t.Fatal("no delivery started")
	}

	returned := make(chan uint64, 1)
	go func() { returned <- feed.Input("eggs and bread", nil) }()

	select {
	case <-returned:
		t.Fatalf("input returned while result %d was still being delivered", r.Seq)
	case <-time.After(30 * time.Millisecond):
	}
	close(release)

	select {
	case seq := <-returned:
		if seq <= r.Seq {
			t.Fatalf("expected a newer request id, got %d after %d", seq, r.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("input never returned")
	}
}
