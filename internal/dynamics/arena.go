package dynamics

import "fmt"

// ID addresses a body inside an Arena. The zero ID is never valid.
type ID struct {
	index uint32
	gen   uint32
}

func (id ID) IsZero() bool { return id.gen == 0 }

func (id ID) String() string {
	if id.IsZero() {
		return "body(none)"
	}
	return fmt.Sprintf("body(%d.%d)", id.index, id.gen)
}

// Less orders IDs by slot, then generation.
func (id ID) Less(o ID) bool {
	if id.index != o.index {
		return id.index < o.index
	}
	return id.gen < o.gen
}

type slot struct {
	body *Body
	gen  uint32
}

// Arena stores bodies in slots reused after removal. A removed slot's
// generation is bumped, so stale IDs stop resolving.
type Arena struct {
	slots []slot
	free  []uint32
	count int
}

func (a *Arena) Insert(b *Body) ID {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.gen++
	s.body = b
	b.id = ID{index: idx, gen: s.gen}
	a.count++
	return b.id
}

func (a *Arena) Get(id ID) (*Body, bool) {
	if id.IsZero() || int(id.index) >= len(a.slots) {
		return nil, false
	}
	s := a.slots[id.index]
	if s.gen != id.gen || s.body == nil {
		return nil, false
	}
	return s.body, true
}

func (a *Arena) Remove(id ID) (*Body, bool) {
	b, ok := a.Get(id)
	if !ok {
		return nil, false
	}
	s := &a.slots[id.index]
	s.body = nil
	s.gen++
	a.free = append(a.free, id.index)
	a.count--
	b.id = ID{}
	return b, true
}

func (a *Arena) Len() int { return a.count }

// Each visits live bodies in slot order.
func (a *Arena) Each(fn func(*Body)) {
	for i := range a.slots {
		if b := a.slots[i].body; b != nil {
			fn(b)
		}
	}
}

// Bodies returns live bodies in slot order.
func (a *Arena) Bodies() []*Body {
	out := make([]*Body, 0, a.count)
	a.Each(func(b *Body) { out = append(out, b) })
	return out
}

// Body makes an Arena a Host.
func (a *Arena) Body(id ID) (*Body, bool) { return a.Get(id) }
