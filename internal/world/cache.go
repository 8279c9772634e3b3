package world

import "github.com/san-kum/motion/internal/dynamics"

// contactCache keeps last step's contacts for warm starting.
type contactCache map[dynamics.ContactKey]*dynamics.Contact

func (cc contactCache) store(contacts []*dynamics.Contact) {
	clear(cc)
	for _, c := range contacts {
		cc[c.Key()] = c
	}
}

// match finds the previous contact with the same bodies and feature that
// moved less than dist.
func (cc contactCache) match(c *dynamics.Contact, dist float64) (*dynamics.Contact, bool) {
	prev, ok := cc[c.Key()]
	if !ok {
		return nil, false
	}
	if prev.Point().Sub(c.Point()).Len() > dist {
		return nil, false
	}
	return prev, true
}

func (cc contactCache) forget(id dynamics.ID) {
	for k := range cc {
		if k.A == id || k.B == id {
			delete(cc, k)
		}
	}
}
