package action

import (
	"time"

	"github.com/ayusman/touchless/internal/gesture"
)

// Dispatcher defaults.
const (
	DefaultCooldown     = 800 * time.Millisecond
	DefaultScrollAmount = 400
)

// Options configures a Dispatcher.
type Options struct {
	// Cooldown is the minimum time between two fired actions, whatever the gesture.
	Cooldown time.Duration
	// ScrollAmount is the magnitude attached to scroll actions.
	ScrollAmount int
	// AppPath is the program opened by LaunchApp.
	AppPath string
}

// DefaultOptions returns the stock dispatcher configuration.
func DefaultOptions() Options {
	return Options{
		Cooldown:     DefaultCooldown,
		ScrollAmount: DefaultScrollAmount,
	}
}

// Dispatcher turns stabilized labels into actions, at most one per cooldown.
//
// The cooldown is shared by all gestures of the owning session: any fired action
// blocks every gesture until it has elapsed. A Dispatcher is not safe for
// concurrent use.
type Dispatcher struct {
	opts     Options
	lastFire time.Time
	fired    bool
}

// NewDispatcher creates a Dispatcher. Non-positive cooldown or scroll amount fall
// back to the defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.ScrollAmount <= 0 {
		opts.ScrollAmount = DefaultScrollAmount
	}
	return &Dispatcher{opts: opts}
}

// Dispatch decides whether label fires at now. It returns the action descriptor and
// true when it does, and records now as the last fire time. Whatever happens to the
// action afterwards, the cooldown stays consumed.
func (d *Dispatcher) Dispatch(label gesture.Label, now time.Time) (Action, bool) {
	kind := KindFor(label)
	if kind == KindNone {
		return Action{}, false
	}
	if d.fired && now.Sub(d.lastFire) < d.opts.Cooldown {
		return Action{}, false
	}

	a := Action{Kind: kind, Gesture: label}
	switch {
	case kind.IsScroll():
		a.Amount = d.opts.ScrollAmount
	case kind == LaunchApp:
		a.Path = d.opts.AppPath
	}

	d.lastFire = now
	d.fired = true
	return a, true
}

// LastFire returns the time of the last fired action, if any.
func (d *Dispatcher) LastFire() (time.Time, bool) {
	return d.lastFire, d.fired
}

// Options returns the effective configuration.
func (d *Dispatcher) Options() Options {
	return d.opts
}
