// Package xsettings implements the XSETTINGS protocol: the wire
// format for the `_XSETTINGS_SETTINGS` property, name validation,
// session selection ownership, and a persisted-settings file format.
package xsettings

import (
	"encoding/binary"
	"fmt"
)

// SettingType tags a Setting's value kind on the wire.
type SettingType byte

const (
	TypeInt    SettingType = 0
	TypeString SettingType = 1
	TypeColor  SettingType = 2
)

// Color is the r-b-g-a quadruple carried by a color setting. The
// field order is preserved exactly as the wire format lays it out
// (red, blue, green, alpha) rather than the more conventional r-g-b-a,
// since that is the byte order pekwm's peers already expect on the
// wire.
type Color struct {
	R, B, G, A uint16
}

// Setting is one entry of the XSETTINGS registry.
type Setting struct {
	Name        string
	Type        SettingType
	LastChanged uint32
	Int         int32
	String      string
	Color       Color
}

func pad4(n int) int { return (4 - n%4) % 4 }

// Serialize encodes settings into the `_XSETTINGS_SETTINGS` property
// payload, using a little-endian byte-order marker and native
// little-endian integers throughout.
func Serialize(serial uint32, settings []Setting) []byte {
	buf := make([]byte, 0, 64*len(settings)+8)
	buf = append(buf, 0, 0, 0, 0) // byte-order marker (0 = little endian) + 3 pad bytes
	buf = appendUint32(buf, serial)
	buf = appendUint32(buf, uint32(len(settings)))

	for _, s := range settings {
		buf = append(buf, byte(s.Type), 0)
		nameLen := len(s.Name)
		buf = appendUint16(buf, uint16(nameLen))
		buf = append(buf, s.Name...)
		buf = append(buf, make([]byte, pad4(nameLen))...)
		buf = appendUint32(buf, s.LastChanged)

		switch s.Type {
		case TypeInt:
			buf = appendUint32(buf, uint32(s.Int))
		case TypeString:
			valLen := len(s.String)
			buf = appendUint32(buf, uint32(valLen))
			buf = append(buf, s.String...)
			buf = append(buf, make([]byte, pad4(valLen))...)
		case TypeColor:
			buf = appendUint16(buf, s.Color.R)
			buf = appendUint16(buf, s.Color.B)
			buf = appendUint16(buf, s.Color.G)
			buf = appendUint16(buf, s.Color.A)
		}
	}
	return buf
}

func appendUint16(buf []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// Deserialize decodes a `_XSETTINGS_SETTINGS` property payload back
// into its serial and settings, honouring the byte-order marker.
func Deserialize(data []byte) (serial uint32, settings []Setting, err error) {
	if len(data) < 8 {
		return 0, nil, fmt.Errorf("xsettings: payload too short (%d bytes)", len(data))
	}
	var order binary.ByteOrder = binary.LittleEndian
	if data[0] != 0 {
		order = binary.BigEndian
	}
	pos := 4
	serial = order.Uint32(data[pos:])
	pos += 4
	count := order.Uint32(data[pos:])
	pos += 4

	settings = make([]Setting, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+4 > len(data) {
			return 0, nil, fmt.Errorf("xsettings: truncated entry header at offset %d", pos)
		}
		typ := SettingType(data[pos])
		pos += 2 // type + unused byte
		nameLen := int(order.Uint16(data[pos:]))
		pos += 2
		if pos+nameLen > len(data) {
			return 0, nil, fmt.Errorf("xsettings: truncated name at offset %d", pos)
		}
		name := string(data[pos : pos+nameLen])
		pos += nameLen + pad4(nameLen)

		if pos+4 > len(data) {
			return 0, nil, fmt.Errorf("xsettings: truncated last-changed at offset %d", pos)
		}
		lastChanged := order.Uint32(data[pos:])
		pos += 4

		s := Setting{Name: name, Type: typ, LastChanged: lastChanged}
		switch typ {
		case TypeInt:
			if pos+4 > len(data) {
				return 0, nil, fmt.Errorf("xsettings: truncated int value at offset %d", pos)
			}
			s.Int = int32(order.Uint32(data[pos:]))
			pos += 4
		case TypeString:
			if pos+4 > len(data) {
				return 0, nil, fmt.Errorf("xsettings: truncated string length at offset %d", pos)
			}
			valLen := int(order.Uint32(data[pos:]))
			pos += 4
			if pos+valLen > len(data) {
				return 0, nil, fmt.Errorf("xsettings: truncated string value at offset %d", pos)
			}
			s.String = string(data[pos : pos+valLen])
			pos += valLen + pad4(valLen)
		case TypeColor:
			if pos+8 > len(data) {
				return 0, nil, fmt.Errorf("xsettings: truncated color value at offset %d", pos)
			}
			s.Color = Color{
				R: order.Uint16(data[pos:]),
				B: order.Uint16(data[pos+2:]),
				G: order.Uint16(data[pos+4:]),
				A: order.Uint16(data[pos+6:]),
			}
			pos += 8
		default:
			return 0, nil, fmt.Errorf("xsettings: unknown setting type %d for %q", typ, name)
		}
		settings = append(settings, s)
	}
	return serial, settings, nil
}

// ValidateName reports whether name is a legal XSETTINGS name:
// non-empty, starting with a letter, continuing with letters, digits
// or `/`, with no leading/trailing `/` and no `//`.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("xsettings: empty setting name")
	}
	if !isAlpha(name[0]) {
		return fmt.Errorf("xsettings: name %q must start with a letter", name)
	}
	if name[0] == '/' || name[len(name)-1] == '/' {
		return fmt.Errorf("xsettings: name %q has a leading or trailing '/'", name)
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if !isAlpha(c) && !isDigit(c) && c != '/' {
			return fmt.Errorf("xsettings: name %q contains invalid character %q", name, c)
		}
		if c == '/' && name[i-1] == '/' {
			return fmt.Errorf("xsettings: name %q contains \"//\"", name)
		}
	}
	return nil
}

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
