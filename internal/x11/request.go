package x11

import (
	"fmt"
	"io"
)

// Event is a decoded server event: Code identifies its kind (the
// protocol's event-code byte, masked to drop the send-event bit) and
// Raw carries the full 32-byte packet for the dispatcher to decode
// further.
type Event struct {
	Code byte
	Raw  [32]byte
}

// protocolError reports a server-side Error reply.
type protocolError struct {
	Code         byte
	Sequence     uint16
	ResourceID   uint32
	MinorOpcode  uint16
	MajorOpcode  byte
}

func (e *protocolError) Error() string {
	return fmt.Sprintf("x11: server error %d (resource %#x, opcode %d/%d, seq %d)",
		e.Code, e.ResourceID, e.MajorOpcode, e.MinorOpcode, e.Sequence)
}

// send writes a request packet: a 4-byte header (major opcode, minor
// data byte, 2-byte length in 4-byte units including the header)
// followed by body, which must already be a multiple of 4 bytes long.
func (c *Conn) send(major, minorData byte, body []byte) (uint16, error) {
	if len(body)%4 != 0 {
		return 0, fmt.Errorf("x11: internal error: unpadded request body (%d bytes)", len(body))
	}
	header := make([]byte, 4, 4+len(body))
	header[0] = major
	header[1] = minorData
	c.order.PutUint16(header[2:4], uint16((4+len(body))/4))
	header = append(header, body...)
	if _, err := c.rw.Write(header); err != nil {
		return 0, fmt.Errorf("x11: writing request: %w", err)
	}
	return c.nextSeq(), nil
}

// roundTrip sends a request expecting exactly one reply, queuing any
// events observed ahead of it, and returns the reply's 32-byte header
// plus any additional reply data.
func (c *Conn) roundTrip(major, minorData byte, body []byte) (header [32]byte, extra []byte, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err = c.send(major, minorData, body); err != nil {
		return header, nil, err
	}
	for {
		if _, err = io.ReadFull(c.r, header[:]); err != nil {
			return header, nil, fmt.Errorf("x11: reading reply: %w", err)
		}
		switch header[0] {
		case 0:
			return header, nil, decodeError(c.order, header)
		case 1:
			extraLen := c.order.Uint32(header[4:8])
			if extraLen > 0 {
				extra = make([]byte, extraLen*4)
				if _, err = io.ReadFull(c.r, extra); err != nil {
					return header, nil, fmt.Errorf("x11: reading reply data: %w", err)
				}
			}
			return header, extra, nil
		default:
			c.queueEvent(header)
			continue
		}
	}
}

// roundTripBytes is roundTrip for callers that want the fixed 32-byte
// header and the variable-length reply data concatenated into one
// buffer, so reply fields that straddle the boundary (as RandR's
// replies do) can be indexed without splitting the arithmetic.
func (c *Conn) roundTripBytes(major, minorData byte, body []byte) ([]byte, error) {
	header, extra, err := c.roundTrip(major, minorData, body)
	if err != nil {
		return nil, err
	}
	return append(header[:], extra...), nil
}

// sendOnly writes a request with no reply (e.g. ChangeProperty),
// queuing any events that happen to arrive isn't necessary since
// nothing blocks waiting on this socket afterward.
func (c *Conn) sendOnly(major, minorData byte, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.send(major, minorData, body)
	return err
}

func decodeError(order interface {
	Uint16([]byte) uint16
	Uint32([]byte) uint32
}, header [32]byte) error {
	return &protocolError{
		Code:        header[1],
		Sequence:    order.Uint16(header[2:4]),
		ResourceID:  order.Uint32(header[4:8]),
		MinorOpcode: order.Uint16(header[8:10]),
		MajorOpcode: header[10],
	}
}
