// Package health tracks component health for the BladeShare service.
package health

import (
	"context"
	"sync"
	"time"
)

// State is a component's health state.
type State int

const (
	// StateHealthy indicates the component is fully operational.
	StateHealthy State = iota

	// StateDegraded indicates the component is failing intermittently.
	StateDegraded

	// StateUnavailable indicates the component is not operational.
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state as its string form.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// ComponentHealth is the reported health of one component.
type ComponentHealth struct {
	Name              string    `json:"name"`
	State             State     `json:"state"`
	LastCheck         time.Time `json:"last_check"`
	ConsecutiveErrors int       `json:"consecutive_errors"`
	LastError         string    `json:"last_error,omitempty"`
}

// Report is the overall health report served on /health.
type Report struct {
	State      State                      `json:"state"`
	Components map[string]ComponentHealth `json:"components"`
}

// TrackerConfig tunes state transitions.
type TrackerConfig struct {
	// DegradedThreshold is the consecutive error count that marks a
	// component degraded.
	DegradedThreshold int

	// UnavailableThreshold is the consecutive error count that marks a
	// component unavailable.
	UnavailableThreshold int

	// CheckInterval is the period of the background check loop.
	CheckInterval time.Duration
}

// DefaultConfig returns the tracker defaults.
func DefaultConfig() TrackerConfig {
	return TrackerConfig{
		DegradedThreshold:    3,
		UnavailableThreshold: 10,
		CheckInterval:        30 * time.Second,
	}
}

// Tracker tracks the health of registered components. A component recovers
// to healthy on the first successful check.
type Tracker struct {
	mu         sync.RWMutex
	config     TrackerConfig
	components map[string]*ComponentHealth
	checks     map[string]CheckFunc
}

// NewTracker creates a tracker with the given configuration.
func NewTracker(config TrackerConfig) *Tracker {
	if config.DegradedThreshold <= 0 {
		config.DegradedThreshold = DefaultConfig().DegradedThreshold
	}
	if config.UnavailableThreshold <= 0 {
		config.UnavailableThreshold = DefaultConfig().UnavailableThreshold
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultConfig().CheckInterval
	}
	return &Tracker{
		config:     config,
		components: make(map[string]*ComponentHealth),
		checks:     make(map[string]CheckFunc),
	}
}

// Register adds a component with its probe. Registering an existing name
// replaces the probe and resets the component to healthy.
func (t *Tracker) Register(name string, check CheckFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.components[name] = &ComponentHealth{
		Name:      name,
		State:     StateHealthy,
		LastCheck: time.Now(),
	}
	t.checks[name] = check
}

// RecordSuccess marks a successful operation against a component.
func (t *Tracker) RecordSuccess(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.components[name]
	if !ok {
		return
	}
	c.LastCheck = time.Now()
	c.ConsecutiveErrors = 0
	c.LastError = ""
	c.State = StateHealthy
}

// RecordError marks a failed operation against a component.
func (t *Tracker) RecordError(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.components[name]
	if !ok {
		return
	}
	c.LastCheck = time.Now()
	c.ConsecutiveErrors++
	if err != nil {
		c.LastError = err.Error()
	}
	switch {
	case c.ConsecutiveErrors >= t.config.UnavailableThreshold:
		c.State = StateUnavailable
	case c.ConsecutiveErrors >= t.config.DegradedThreshold:
		c.State = StateDegraded
	}
}

// GetState returns a component's state. Unknown components are
// unavailable.
func (t *Tracker) GetState(name string) State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if c, ok := t.components[name]; ok {
		return c.State
	}
	return StateUnavailable
}

// Overall returns the full report. The top-level state is the worst
// component state.
func (t *Tracker) Overall() Report {
	t.mu.RLock()
	defer t.mu.RUnlock()

	report := Report{
		State:      StateHealthy,
		Components: make(map[string]ComponentHealth, len(t.components)),
	}
	for name, c := range t.components {
		report.Components[name] = *c
		if c.State > report.State {
			report.State = c.State
		}
	}
	return report
}

// Run probes every registered component on the configured interval until
// the context is canceled. It probes once immediately on start.
func (t *Tracker) Run(ctx context.Context) {
	t.checkAll(ctx)

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAll(ctx)
		}
	}
}

func (t *Tracker) checkAll(ctx context.Context) {
	t.mu.RLock()
	checks := make(map[string]CheckFunc, len(t.checks))
	for name, fn := range t.checks {
		checks[name] = fn
	}
	t.mu.RUnlock()

	for name, fn := range checks {
		if fn == nil {
			continue
		}
		if err := fn(ctx); err != nil {
			t.RecordError(name, err)
		} else {
			t.RecordSuccess(name)
		}
	}
}
