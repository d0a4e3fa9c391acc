package x11

import "fmt"

const (
	opGetSelectionOwner = 23
	opSetSelectionOwner = 22
	opGrabServer        = 36
	opUngrabServer      = 37
	opGetInputFocus     = 43 // cheap no-op round trip, used by Sync

	clientMessageEvent = 33
)

// GetSelectionOwner returns the window currently owning selection, or
// None.
func (c *Conn) GetSelectionOwner(selection Atom) (Window, error) {
	body := put32(nil, c.order, uint32(selection))
	header, _, err := c.roundTrip(opGetSelectionOwner, 0, body)
	if err != nil {
		return None, fmt.Errorf("x11: getting selection owner: %w", err)
	}
	return Window(c.order.Uint32(header[8:12])), nil
}

// SetSelectionOwner claims selection for owner at the given
// timestamp (CurrentTime is usually correct).
func (c *Conn) SetSelectionOwner(selection Atom, owner Window, at Time) error {
	body := make([]byte, 0, 12)
	body = put32(body, c.order, uint32(owner))
	body = put32(body, c.order, uint32(selection))
	body = put32(body, c.order, uint32(at))
	return c.sendOnly(opSetSelectionOwner, 0, body)
}

// grabDepth is the server-grab re-entrant counter described by the
// reactor's concurrency model: the server is grabbed on the first
// request and released only when the counter returns to zero.
type grabDepth struct {
	n int
}

// GrabServer grabs the X server, re-entrantly: only the outermost
// call issues the wire request.
func (c *Conn) GrabServer() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.grabs.n == 0 {
		if _, err := c.send(opGrabServer, 0, nil); err != nil {
			return fmt.Errorf("x11: grabbing server: %w", err)
		}
	}
	c.grabs.n++
	return nil
}

// UngrabServer releases one level of server grab, issuing the wire
// request only when the counter returns to zero.
func (c *Conn) UngrabServer() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.grabs.n == 0 {
		return fmt.Errorf("x11: ungrab without matching grab")
	}
	c.grabs.n--
	if c.grabs.n == 0 {
		if _, err := c.send(opUngrabServer, 0, nil); err != nil {
			return fmt.Errorf("x11: ungrabbing server: %w", err)
		}
	}
	return nil
}

// Sync flushes all pending requests and blocks until the server has
// processed them, via a cheap round-trip request (GetInputFocus).
func (c *Conn) Sync() error {
	_, _, err := c.roundTrip(opGetInputFocus, 0, nil)
	if err != nil {
		return fmt.Errorf("x11: syncing: %w", err)
	}
	return nil
}

// SelectStructureNotify arms StructureNotify events on win, so its
// destruction is observed as a DestroyNotify.
func (c *Conn) SelectStructureNotify(win Window) error {
	return c.SelectInput(win, StructureNotifyMask)
}

// SendManagerMessage announces a selection claim via the ICCCM
// MANAGER convention: a ClientMessage to root naming the MANAGER
// atom, carrying the timestamp, the claimed selection atom, and the
// new owner window.
func (c *Conn) SendManagerMessage(root Window, selection Atom, owner Window, at Time) error {
	managerAtom, err := c.InternAtom("MANAGER")
	if err != nil {
		return fmt.Errorf("x11: resolving MANAGER atom: %w", err)
	}

	var event [32]byte
	event[0] = clientMessageEvent
	event[1] = 32 // format
	c.order.PutUint32(event[4:8], uint32(root))
	c.order.PutUint32(event[8:12], uint32(managerAtom))
	c.order.PutUint32(event[12:16], uint32(at))
	c.order.PutUint32(event[16:20], uint32(selection))
	c.order.PutUint32(event[20:24], uint32(owner))

	const substructureNotifyMask = 1 << 19
	return c.SendEvent(root, false, substructureNotifyMask, event)
}
