package shell

import (
	"sync"

	"github.com/milkrun/storefront/internal/location"
)

// Status describes where the delivery location stands.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusResolving Status = "resolving"
	StatusResolved  Status = "resolved"
	// StatusManualEntry asks the UI to show the address entry prompt.
	StatusManualEntry Status = "manual-entry"
)

// Snapshot is an immutable view of a Profile.
type Snapshot struct {
	Status   Status
	Location *location.ResolvedLocation
	Err      error
}

// Profile holds the session's resolved delivery location. It lives only as
// long as the session; the backend keeps the durable copy.
type Profile struct {
	mu       sync.Mutex
	snap     Snapshot
	onChange func(Snapshot)
}

// NewProfile builds an idle profile. onChange may be nil.
func NewProfile(onChange func(Snapshot)) *Profile {
	return &Profile{snap: Snapshot{Status: StatusIdle}, onChange: onChange}
}

func (p *Profile) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Coordinates returns the current location's coordinates, if any.
func (p *Profile) Coordinates() *location.Coordinates {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snap.Location == nil {
		return nil
	}
	c := p.snap.Location.Coordinates
	return &c
}

// Apply stores loc as the current location.
func (p *Profile) Apply(loc location.ResolvedLocation) {
	p.update(Snapshot{Status: StatusResolved, Location: &loc})
}

func (p *Profile) setStatus(status Status, err error) {
	p.mu.Lock()
	next := Snapshot{Status: status, Location: p.snap.Location, Err: err}
	p.mu.Unlock()
	p.update(next)
}

// Clear drops the location, e.g. on logout.
func (p *Profile) Clear() {
	p.update(Snapshot{Status: StatusIdle})
}

func (p *Profile) update(next Snapshot) {
	p.mu.Lock()
	p.snap = next
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn(next)
	}
}
