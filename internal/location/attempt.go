package location

import (
	"context"
	"errors"
	"sync"
)

// State is the phase of one resolution attempt.
type State string

const (
	StateIdle         State = "idle"
	StateAcquiringGPS State = "acquiring-gps"
	StateGeocoding    State = "geocoding"
	StateResolved     State = "resolved"
	StateGPSFailed    State = "gps-failed"
)

// ErrAttemptUsed is returned when Run is called on a finished attempt.
var ErrAttemptUsed = errors.New("resolution attempt already run")

// Attempt is a single GPS resolution. Geocoding always ends in resolved
// because of the fallback address; gps-failed is terminal and a retry needs
// a new Attempt.
type Attempt struct {
	r            *Resolver
	onTransition func(from, to State)

	mu    sync.Mutex
	state State
}

// NewAttempt starts an idle attempt. onTransition may be nil.
func (r *Resolver) NewAttempt(onTransition func(from, to State)) *Attempt {
	return &Attempt{r: r, onTransition: onTransition, state: StateIdle}
}

// State returns the current phase.
func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Attempt) move(to State) {
	a.mu.Lock()
	from := a.state
	a.state = to
	a.mu.Unlock()
	if a.onTransition != nil {
		a.onTransition(from, to)
	}
}

// Run drives the attempt to a terminal state.
func (a *Attempt) Run(ctx context.Context) (ResolvedLocation, error) {
	a.mu.Lock()
	if a.state != StateIdle {
		a.mu.Unlock()
		return ResolvedLocation{}, ErrAttemptUsed
	}
	a.mu.Unlock()

	a.move(StateAcquiringGPS)
	pos, err := a.r.AcquireGPS(ctx)
	if err != nil {
		a.move(StateGPSFailed)
		return ResolvedLocation{}, err
	}

	a.move(StateGeocoding)
	addr, err := a.r.ReverseGeocode(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		if a.r.logger != nil {
			a.r.logger.Info("reverse geocode failed, using fallback address", "error", err)
		}
		addr = FallbackAddress(pos.Latitude, pos.Longitude)
	}

	accuracy := pos.Accuracy
	loc := ResolvedLocation{
		Coordinates:      pos.Coordinates,
		FormattedAddress: addr,
		Accuracy:         &accuracy,
	}
	a.move(StateResolved)
	return loc, nil
}
