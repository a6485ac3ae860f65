// Package gesture turns raw pointer and touch events into drag positions.
//
// A Controller is attached to one draggable element: a note card, or the
// canvas itself. Both kinds of controller see the same event stream, and the
// modifier gate decides which one claims a gesture:
//
//   - A pan controller (ModifierRequired: true) starts on a pointer drag with
//     the secondary modifier held, or on a two-finger touch.
//   - An item controller (ModifierRequired: false) starts on a plain pointer
//     drag, or on any touch that is not two-finger.
//
// The controller that does not claim the gesture rejects it silently.
//
// # Gesture lifecycle
//
//	c := gesture.NewController(gesture.Config{
//	    OnPositionChanged: func(p gesture.Position) { ... },
//	    OnSelected:        func() { ... },
//	})
//	c.Start(ev)  // records pointer and position origins
//	c.Move(ev)   // position follows the pointer 1:1, rounded
//	c.End(ev)    // back to idle
//
// Moves whose coordinates are all zero are dropped. Browsers emit one such
// event at the end of a native drag and it would otherwise snap the element
// to the origin.
//
// # Scroll lockout
//
// Scroll disables gesture initiation until the page has been quiet for the
// lockout window (500ms by default), so a scroll is never read as a drag.
//
// # Thread Safety
//
// Controller is safe for concurrent use. Callbacks are invoked without the
// internal lock held.
package gesture
