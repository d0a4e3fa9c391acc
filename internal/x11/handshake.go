package x11

import (
	"fmt"
	"io"
)

// handshake performs the X11 connection setup exchange and records
// the fields later requests need: the byte order, this client's
// resource ID range, and each screen's root window and geometry.
func (c *Conn) handshake() error {
	req := make([]byte, 0, 12)
	req = append(req, 'l', 0) // little-endian byte order, 1 pad byte
	req = put16(req, c.order, 11)
	req = put16(req, c.order, 0)
	req = put16(req, c.order, 0) // auth-name length
	req = put16(req, c.order, 0) // auth-data length
	req = put16(req, c.order, 0) // 2 unused bytes
	if _, err := c.rw.Write(req); err != nil {
		return fmt.Errorf("x11: sending connection setup: %w", err)
	}

	head := make([]byte, 8)
	if _, err := io.ReadFull(c.r, head); err != nil {
		return fmt.Errorf("x11: reading setup reply header: %w", err)
	}
	status := head[0]
	reasonLen := int(head[1])
	additionalWords := c.order.Uint16(head[6:8])

	if status != 1 {
		reason := make([]byte, pad4pad(reasonLen))
		io.ReadFull(c.r, reason)
		return fmt.Errorf("x11: connection setup refused: %s", string(reason[:reasonLen]))
	}

	body := make([]byte, int(additionalWords)*4)
	if _, err := io.ReadFull(c.r, body); err != nil {
		return fmt.Errorf("x11: reading setup reply body: %w", err)
	}
	return c.parseSetupBody(body)
}

// pad4pad rounds n up to the next multiple of 4 (a convenience for
// the reason-string length, which the protocol itself leaves
// unpadded in the header but which the wire still rounds up).
func pad4pad(n int) int { return n + pad4(n) }

func (c *Conn) parseSetupBody(body []byte) error {
	if len(body) < 32 {
		return fmt.Errorf("x11: setup reply body too short")
	}
	o := c.order
	c.resourceID = o.Uint32(body[4:8])
	mask := o.Uint32(body[8:12])
	c.resourceInc = mask & -mask
	c.resourceMax = mask
	vendorLen := int(o.Uint16(body[16:18]))
	numFormats := int(body[21])
	numScreens := int(body[20])

	pos := 32
	pos += vendorLen + pad4(vendorLen)
	pos += numFormats * 8

	c.screens = make([]Screen, 0, numScreens)
	for i := 0; i < numScreens; i++ {
		if pos+40 > len(body) {
			return fmt.Errorf("x11: truncated screen record at offset %d", pos)
		}
		scr := Screen{
			Root:       Window(o.Uint32(body[pos : pos+4])),
			WidthInPx:  o.Uint16(body[pos+20 : pos+22]),
			HeightInPx: o.Uint16(body[pos+22 : pos+24]),
			WidthInMM:  o.Uint16(body[pos+24 : pos+26]),
			HeightInMM: o.Uint16(body[pos+26 : pos+28]),
		}
		c.screens = append(c.screens, scr)
		numDepths := int(body[pos+39])
		pos += 40
		for d := 0; d < numDepths; d++ {
			if pos+8 > len(body) {
				return fmt.Errorf("x11: truncated depth record at offset %d", pos)
			}
			numVisuals := int(o.Uint16(body[pos+2 : pos+4]))
			pos += 8 + numVisuals*24
		}
	}
	return nil
}
