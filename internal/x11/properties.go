package x11

import "fmt"

const (
	opGetProperty    = 20
	opChangeProperty = 18

	propModeReplace = 0

	anyPropertyType = 0
)

// GetProperty reads win's property, requesting up to maxLength
// 32-bit units of data; typeFilter may be 0 (AnyPropertyType) to
// accept any type. It returns the raw value bytes and the server's
// reported actual type atom.
func (c *Conn) GetProperty(win Window, property, typeFilter Atom, offset, maxLength uint32) ([]byte, Atom, error) {
	body := make([]byte, 0, 20)
	body = put32(body, c.order, uint32(win))
	body = put32(body, c.order, uint32(property))
	body = put32(body, c.order, uint32(typeFilter))
	body = put32(body, c.order, offset)
	body = put32(body, c.order, maxLength)

	header, extra, err := c.roundTrip(opGetProperty, 0, body)
	if err != nil {
		return nil, 0, fmt.Errorf("x11: getting property: %w", err)
	}
	format := header[1]
	actualType := Atom(c.order.Uint32(header[8:12]))
	valueLen := c.order.Uint32(header[16:20])
	if format == 0 || valueLen == 0 {
		return nil, actualType, nil
	}
	unitBytes := int(format) / 8
	n := int(valueLen) * unitBytes
	if n > len(extra) {
		n = len(extra)
	}
	return extra[:n], actualType, nil
}

// ChangeProperty replaces win's property value with data, interpreted
// as an array of format-sized units (8, 16, or 32 bits each).
func (c *Conn) ChangeProperty(win Window, property, typ Atom, format byte, data []byte) error {
	unitBytes := int(format) / 8
	if unitBytes == 0 {
		return fmt.Errorf("x11: invalid property format %d", format)
	}
	units := len(data) / unitBytes
	body := make([]byte, 0, 16+len(data)+pad4(len(data)))
	body = put32(body, c.order, uint32(win))
	body = put32(body, c.order, uint32(property))
	body = put32(body, c.order, uint32(typ))
	body = append(body, format, 0, 0, 0)
	body = put32(body, c.order, uint32(units))
	body = append(body, data...)
	body = append(body, padBytes(len(data))...)
	return c.sendOnly(opChangeProperty, propModeReplace, body)
}
