package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/milkrun/storefront/internal/backend"
	"github.com/milkrun/storefront/internal/location"
	"github.com/milkrun/storefront/internal/logging"
	"github.com/milkrun/storefront/internal/navigation"
	"github.com/milkrun/storefront/internal/session"
)

// Authenticator is the part of the backend the shell signs in with.
// *backend.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (backend.Session, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (backend.User, error)
}

// ErrSessionChanged is returned when the user signed in or out while a
// lookup was in flight. The result is discarded.
var ErrSessionChanged = errors.New("session changed during lookup")

// Config wires an App.
type Config struct {
	Navigator       navigation.Navigator
	Resolver        *location.Resolver
	Auth            Authenticator
	Logger          *slog.Logger
	OnProfileChange func(Snapshot)
	// DebounceWindow overrides location.DebounceWindow for suggestion feeds.
	DebounceWindow time.Duration
}

// App composes the session store, route guard and location resolver. The
// guard runs on every session and route change; the resolver runs once after
// a customer signs in and again whenever a suggestion is chosen.
type App struct {
	store    *session.Store
	guard    *navigation.Guard
	resolver *location.Resolver
	profile  *Profile
	auth     Authenticator
	logger   *slog.Logger
	debounce time.Duration

	// mu orders profile writes for a session against sign-out, so nothing
	// resolved for a session lands after it ended.
	mu    sync.Mutex
	syncs sync.WaitGroup
}

func New(cfg Config) *App {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	store := session.NewStore()
	return &App{
		store:    store,
		guard:    navigation.NewGuard(cfg.Navigator, store, cfg.Logger),
		resolver: cfg.Resolver,
		profile:  NewProfile(cfg.OnProfileChange),
		auth:     cfg.Auth,
		logger:   cfg.Logger,
		debounce: cfg.DebounceWindow,
	}
}

func (a *App) Session() session.State { return a.store.Current() }

func (a *App) Profile() *Profile { return a.profile }

func (a *App) Guard() *navigation.Guard { return a.guard }

// Restore re-establishes a stored session on launch. Any failure leaves the
// app signed out.
func (a *App) Restore(ctx context.Context, token string) session.Session {
	if token == "" {
		a.store.SignOut()
		return session.Anonymous()
	}
	a.store.SetLoading()
	me, err := a.auth.Me(ctx, token)
	if err != nil {
		a.logger.Info("stored session rejected", slog.Any("error", err))
		a.store.SignOut()
		return session.Anonymous()
	}
	sess := session.NewSession(me.Role, token, me.ID)
	a.store.SignIn(sess)
	return sess
}

// Login signs in and, for customers, resolves the delivery location once.
// Location problems never fail the login.
func (a *App) Login(ctx context.Context, email, password string) (session.Session, error) {
	a.store.SetLoading()
	resp, err := a.auth.Login(ctx, email, password)
	if err != nil {
		a.store.SignOut()
		return session.Anonymous(), err
	}
	sess := session.NewSession(resp.User.Role, resp.Token, resp.User.ID)
	a.store.SignIn(sess)

	if sess.Role == session.RoleCustomer {
		a.resolveOnce(ctx, sess)
	}
	return sess, nil
}

func (a *App) resolveOnce(ctx context.Context, sess session.Session) {
	if !a.whileCurrent(sess, func() { a.profile.setStatus(StatusResolving, nil) }) {
		return
	}
	loc, err := a.resolver.ResolveWithFallback(ctx)
	applied := a.whileCurrent(sess, func() {
		if err != nil {
			a.profile.setStatus(StatusManualEntry, err)
			return
		}
		a.profile.Apply(loc)
		a.syncInBackground(sess.Token, loc)
	})
	switch {
	case !applied:
		a.logger.Info("discarding location resolved for an ended session")
	case err != nil && !errors.Is(err, location.ErrPermissionDenied):
		a.logger.Warn("location unavailable", slog.Any("error", err))
	}
}

// ChooseSuggestion resolves a picked suggestion, applies it locally and, for
// signed-in customers, syncs it in the background. It fails with
// ErrSessionChanged if the session changed before the lookup finished.
func (a *App) ChooseSuggestion(ctx context.Context, placeID string) (location.ResolvedLocation, error) {
	return a.chooseSuggestion(ctx, placeID, "")
}

func (a *App) chooseSuggestion(ctx context.Context, placeID, searchSession string) (location.ResolvedLocation, error) {
	sess := a.store.Current().Session
	loc, err := a.resolver.ResolvePlaceDetails(ctx, placeID, searchSession)
	if err != nil {
		return location.ResolvedLocation{}, err
	}
	applied := a.whileCurrent(sess, func() {
		a.profile.Apply(loc)
		if sess.Authenticated && sess.Role == session.RoleCustomer {
			a.syncInBackground(sess.Token, loc)
		}
	})
	if !applied {
		return location.ResolvedLocation{}, ErrSessionChanged
	}
	return loc, nil
}

// whileCurrent runs fn if sess is still the current session and reports
// whether it ran.
func (a *App) whileCurrent(sess session.Session, fn func()) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.store.Current().Session
	if cur.Authenticated != sess.Authenticated || cur.Token != sess.Token {
		return false
	}
	fn()
	return true
}

// Search queries places biased toward the current location.
func (a *App) Search(ctx context.Context, query string) ([]location.PlaceSuggestion, error) {
	return a.resolver.SearchPlaces(ctx, query, a.profile.Coordinates(), "")
}

// NewSuggestionFeed returns a debounced feed for one address input field,
// biased toward the current location at the time of each keystroke.
func (a *App) NewSuggestionFeed(deliver func(location.Result)) *SuggestionInput {
	return &SuggestionInput{
		app:  a,
		feed: location.NewSuggestionFeed(a.resolver, a.debounce, deliver),
	}
}

// Logout revokes the session remotely when possible and always clears local
// state.
func (a *App) Logout(ctx context.Context) error {
	token := a.store.Current().Session.Token
	var err error
	if token != "" {
		if err = a.auth.Logout(ctx, token); err != nil {
			a.logger.Warn("remote logout failed", slog.Any("error", err))
			err = fmt.Errorf("logout: %w", err)
		}
	}
	a.mu.Lock()
	a.store.SignOut()
	a.profile.Clear()
	a.mu.Unlock()
	return err
}

// Wait blocks until background syncs started so far have finished.
func (a *App) Wait() {
	a.syncs.Wait()
}

// Close stops the guard. Pending syncs are not waited for.
func (a *App) Close() {
	a.guard.Close()
}

func (a *App) syncInBackground(token string, loc location.ResolvedLocation) {
	a.syncs.Add(1)
	done := a.resolver.SyncInBackground(token, loc)
	go func() {
		defer a.syncs.Done()
		<-done
	}()
}

// SuggestionInput binds a SuggestionFeed to the app: keystrokes are biased
// toward the profile, and Choose closes the feed's search session.
type SuggestionInput struct {
	app  *App
	feed *location.SuggestionFeed
}

func (s *SuggestionInput) Input(query string) uint64 {
	return s.feed.Input(query, s.app.profile.Coordinates())
}

// Choose resolves a suggestion delivered by this input, like
// App.ChooseSuggestion, under the feed's search session.
func (s *SuggestionInput) Choose(ctx context.Context, placeID string) (location.ResolvedLocation, error) {
	return s.app.chooseSuggestion(ctx, placeID, s.feed.EndSession())
}

func (s *SuggestionInput) Close() { s.feed.Close() }
