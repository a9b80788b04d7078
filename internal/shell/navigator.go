package shell

import (
	"sync"

	"github.com/milkrun/storefront/internal/navigation"
)

// MemoryNavigator is a headless router: Replace moves to the target at once.
type MemoryNavigator struct {
	mu       sync.Mutex
	route    navigation.Route
	replaced []string
}

func NewMemoryNavigator(path string) *MemoryNavigator {
	return &MemoryNavigator{route: navigation.ParseRoute(path)}
}

func (n *MemoryNavigator) CurrentSegments() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.route...)
}

func (n *MemoryNavigator) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.route = navigation.ParseRoute(path)
	n.replaced = append(n.replaced, path)
}

// Go moves to path as a user action would.
func (n *MemoryNavigator) Go(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.route = navigation.ParseRoute(path)
}

// Location returns the current path.
func (n *MemoryNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.route.String()
}

// Redirects lists every Replace target in order.
func (n *MemoryNavigator) Redirects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.replaced...)
}
