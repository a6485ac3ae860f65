package gesture

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/sticky/pkg/debounce"
)

// DefaultScrollLockout is how long gesture initiation stays disabled after the last scroll.
const DefaultScrollLockout = 500 * time.Millisecond

// Config configures a Controller.
type Config struct {
	// ModifierRequired marks the pan controller. Pointer gestures start only
	// when the modifier state matches it; touch gestures only when
	// (Touches == 2) matches it.
	ModifierRequired bool

	// Initial is the position before any gesture.
	Initial Position

	// ScrollLockout overrides DefaultScrollLockout when positive.
	ScrollLockout time.Duration

	// OnPositionChanged fires on every accepted move.
	OnPositionChanged func(Position)

	// OnSelected fires once at the start of every gesture and on click,
	// whether or not the gate accepts the gesture.
	OnSelected func()

	Logger *slog.Logger
}

// origin is the snapshot taken when a gesture is accepted.
type origin struct {
	pointer  Position
	position Position
}

// Controller is the per-element drag state machine.
type Controller struct {
	mu     sync.Mutex
	config Config

	position Position
	origin   *origin
	allowed  bool

	lockout *debounce.Debouncer
}

// NewController creates an idle controller.
func NewController(config Config) *Controller {
	lockout := config.ScrollLockout
	if lockout <= 0 {
		lockout = DefaultScrollLockout
	}
	return &Controller{
		config:   config,
		position: config.Initial.Round(),
		allowed:  true,
		lockout:  debounce.New(lockout),
	}
}

// Start begins a gesture. It reports whether this controller claimed it.
func (c *Controller) Start(ev Event) bool {
	c.selected()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.allowed {
		c.debug("gesture rejected", "reason", "scroll lockout", "kind", ev.Kind)
		return false
	}
	if ev.panGesture() != c.config.ModifierRequired {
		return false
	}

	c.origin = &origin{pointer: ev.Client, position: c.position}
	c.debug("gesture started", "kind", ev.Kind, "x", ev.Client.X, "y", ev.Client.Y)
	return true
}

// Move updates the position from the pointer delta. It reports whether the
// sample was accepted.
func (c *Controller) Move(ev Event) bool {
	c.mu.Lock()
	if c.origin == nil {
		c.mu.Unlock()
		return false
	}
	if ev.Kind == KindTouch && ev.panGesture() != c.config.ModifierRequired {
		c.mu.Unlock()
		return false
	}
	if ev.spurious() {
		c.mu.Unlock()
		return false
	}

	delta := c.origin.pointer.Sub(ev.Client)
	c.position = c.origin.position.Sub(delta).Round()
	pos := c.position
	c.mu.Unlock()

	if c.config.OnPositionChanged != nil {
		c.config.OnPositionChanged(pos)
	}
	return true
}

// End terminates the current gesture, if any.
func (c *Controller) End(_ Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.origin = nil
}

// Click selects without dragging.
func (c *Controller) Click() {
	c.selected()
}

// Scroll disables gesture initiation until scrolling has been quiet for the lockout window.
func (c *Controller) Scroll() {
	c.mu.Lock()
	c.allowed = false
	c.mu.Unlock()

	c.lockout.Exec(func() {
		c.mu.Lock()
		c.allowed = true
		c.mu.Unlock()
	})
}

// Position returns the current position.
func (c *Controller) Position() Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// SetPosition resynchronizes the controller with its model while idle.
// It is ignored during an active gesture.
func (c *Controller) SetPosition(p Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.origin == nil {
		c.position = p.Round()
	}
}

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.origin != nil
}

// Allowed reports whether a gesture may start (no scroll lockout).
func (c *Controller) Allowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allowed
}

// Close drops the pending lockout release.
func (c *Controller) Close() {
	c.lockout.Cancel()
}

func (c *Controller) selected() {
	if c.config.OnSelected != nil {
		c.config.OnSelected()
	}
}

func (c *Controller) debug(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, args...)
	}
}

// ControllerState exposes the controller for observability.
type ControllerState struct {
	Pan      bool     `json:"pan"`
	Position Position `json:"position"`
	Active   bool     `json:"active"`
	Allowed  bool     `json:"allowed"`
}

// State implements introspection.Introspectable.
func (c *Controller) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ControllerState{
		Pan:      c.config.ModifierRequired,
		Position: c.position,
		Active:   c.origin != nil,
		Allowed:  c.allowed,
	}
}

// ComponentType implements introspection.Component.
func (c *Controller) ComponentType() string {
	return "gesture-controller"
}

var _ introspection.Introspectable = (*Controller)(nil)
var _ introspection.Component = (*Controller)(nil)
