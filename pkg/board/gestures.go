package board

import (
	"fmt"

	"github.com/aretw0/sticky/pkg/core"
	"github.com/aretw0/sticky/pkg/gesture"
)

// Canvas is the gesture target for events outside any note.
const Canvas = ""

// Claim says which controller took a gesture event.
type Claim int

const (
	ClaimNone Claim = iota
	ClaimNote
	ClaimPan
)

func (c Claim) String() string {
	switch c {
	case ClaimNote:
		return "note"
	case ClaimPan:
		return "pan"
	default:
		return "none"
	}
}

// PointerStart offers a gesture start on target (a note id or Canvas) to the
// note's controller and then to the canvas pan controller, the way a pointer
// event bubbles from a note to the canvas. The modifier gate makes at most
// one of them accept. Starting on a note selects it even when the gesture is
// rejected.
func (b *Board) PointerStart(target string, ev gesture.Event) (Claim, error) {
	claim := ClaimNone
	if target != Canvas {
		item, err := b.item(target)
		if err != nil {
			return ClaimNone, err
		}
		if item.Start(ev) {
			claim = ClaimNote
		}
	}
	if b.pan.Start(ev) && claim == ClaimNone {
		claim = ClaimPan
	}
	return claim, nil
}

// PointerMove feeds a move sample to every active controller.
func (b *Board) PointerMove(ev gesture.Event) Claim {
	claim := ClaimNone
	for _, item := range b.activeItems() {
		if item.Move(ev) {
			claim = ClaimNote
		}
	}
	if b.pan.Active() && b.pan.Move(ev) && claim == ClaimNone {
		claim = ClaimPan
	}
	return claim
}

// PointerEnd ends every active gesture.
func (b *Board) PointerEnd(ev gesture.Event) {
	for _, item := range b.activeItems() {
		item.End(ev)
	}
	b.pan.End(ev)
}

// Click selects target without dragging. Clicking the canvas does nothing.
func (b *Board) Click(target string) error {
	if target == Canvas {
		return nil
	}
	item, err := b.item(target)
	if err != nil {
		return err
	}
	item.Click()
	return nil
}

// Scroll starts the scroll lockout on every controller.
func (b *Board) Scroll() {
	b.mu.Lock()
	items := make([]*gesture.Controller, 0, len(b.items))
	for _, c := range b.items {
		items = append(items, c)
	}
	b.mu.Unlock()

	for _, c := range items {
		c.Scroll()
	}
	b.pan.Scroll()
}

// Viewport returns the canvas pan offset. It is not persisted.
func (b *Board) Viewport() gesture.Position {
	return b.pan.Position()
}

func (b *Board) item(id string) (*gesture.Controller, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrNoteNotFound, id)
	}
	return c, nil
}

func (b *Board) activeItems() []*gesture.Controller {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*gesture.Controller
	for _, c := range b.items {
		if c.Active() {
			out = append(out, c)
		}
	}
	return out
}

// syncControllers keeps one item controller per note and moves idle ones to
// their note's position.
func (b *Board) syncControllers() {
	b.mu.Lock()
	defer b.mu.Unlock()

	sheet := b.sheet
	notes := sheet.Notes()
	live := make(map[string]bool, len(notes))
	for _, n := range notes {
		live[n.ID] = true
		pos := gesture.Position{X: n.Position.X, Y: n.Position.Y}
		if c, ok := b.items[n.ID]; ok {
			c.SetPosition(pos)
			continue
		}
		b.items[n.ID] = b.newItemController(sheet, n.ID, pos)
	}
	for id, c := range b.items {
		if !live[id] {
			c.Close()
			delete(b.items, id)
		}
	}
}

func (b *Board) newItemController(sheet *core.Sheet, id string, pos gesture.Position) *gesture.Controller {
	return gesture.NewController(gesture.Config{
		Initial:       pos,
		ScrollLockout: b.scrollLockout,
		Logger:        b.logger,
		OnPositionChanged: func(p gesture.Position) {
			if err := sheet.SetPosition(id, core.Position{X: p.X, Y: p.Y}); err != nil {
				b.debug("drag target vanished", "note", id, "error", err)
			}
		},
		OnSelected: func() {
			if err := sheet.Reorder(id); err != nil {
				b.debug("select target vanished", "note", id, "error", err)
			}
		},
	})
}
