package x11

import (
	"fmt"

	"github.com/pekwm/pekwm-sys/internal/monitors"
)

// RandR request minor-opcodes, per the RandR 1.2 protocol extension
// (dispatched under the extension's own major opcode, resolved once
// via QueryExtension).
const (
	randrSetScreenSize      = 7
	randrGetScreenResources = 8
	randrGetOutputInfo      = 9
	randrGetCrtcInfo        = 20
	randrSetCrtcConfig      = 21
)

const (
	randrConnected = 0
)

// RandR is the RandR-extension-backed implementation of
// monitors.XRandRProvider, resolving the extension's major opcode
// once via core QueryExtension and then issuing RandR requests under
// it.
type RandR struct {
	conn  *Conn
	root  Window
	major byte

	// populated by the most recent ScreenResources call; SetCrtcConfig
	// needs real output/mode IDs but monitors.XRandRProvider's
	// interface only deals in names, so a fresh lookup is forced
	// before every config change.
	outputIDsByName map[string]uint32
	modeIDsByName   map[string]uint32
}

const opQueryExtension = 98

// NewRandR resolves the RANDR extension against conn and binds the
// provider to root's screen.
func NewRandR(conn *Conn, root Window) (*RandR, error) {
	name := "RANDR"
	body := put16(nil, conn.order, uint16(len(name)))
	body = append(body, 0, 0)
	body = append(body, name...)
	body = append(body, padBytes(len(name))...)

	reply, err := conn.roundTripBytes(opQueryExtension, 0, body)
	if err != nil {
		return nil, fmt.Errorf("x11: querying RANDR extension: %w", err)
	}
	if reply[8] == 0 {
		return nil, fmt.Errorf("x11: RANDR extension not present on server")
	}
	return &RandR{conn: conn, root: root, major: reply[9]}, nil
}

func (r *RandR) roundTrip(minor byte, body []byte) ([]byte, error) {
	return r.conn.roundTripBytes(r.major, minor, body)
}

// reply offsets below follow the RandR 1.2 protocol's fixed reply
// layout, with the variable-length trailer walked by hand; bytes 0-7
// (reply marker, status/depth byte, sequence, extra-length) are
// common to every core reply and skipped implicitly.

// ScreenResources implements monitors.XRandRProvider.
func (r *RandR) ScreenResources() (monitors.ScreenResources, error) {
	reply, err := r.roundTrip(randrGetScreenResources, put32(nil, r.conn.order, uint32(r.root)))
	if err != nil {
		return monitors.ScreenResources{}, fmt.Errorf("x11: getting screen resources: %w", err)
	}
	o := r.conn.order
	numCrtcs := int(o.Uint16(reply[16:18]))
	numOutputs := int(o.Uint16(reply[18:20]))
	numModes := int(o.Uint16(reply[20:22]))

	pos := 32
	crtcIDs := make([]monitors.CrtcID, numCrtcs)
	for i := 0; i < numCrtcs; i++ {
		crtcIDs[i] = monitors.CrtcID(o.Uint32(reply[pos : pos+4]))
		pos += 4
	}
	outputIDs := make([]uint32, numOutputs)
	for i := 0; i < numOutputs; i++ {
		outputIDs[i] = o.Uint32(reply[pos : pos+4])
		pos += 4
	}
	type modeInfo struct {
		id      uint32
		refresh float64
		nameLen int
	}
	modeInfos := make([]modeInfo, numModes)
	for i := 0; i < numModes; i++ {
		id := o.Uint32(reply[pos : pos+4])
		dotClock := o.Uint32(reply[pos+8 : pos+12])
		hTotal := o.Uint16(reply[pos+16 : pos+18])
		vTotal := o.Uint16(reply[pos+24 : pos+26])
		nameLen := int(o.Uint16(reply[pos+26 : pos+28]))
		refresh := 0.0
		if hTotal > 0 && vTotal > 0 {
			refresh = float64(dotClock) / (float64(hTotal) * float64(vTotal))
		}
		modeInfos[i] = modeInfo{id: id, refresh: refresh, nameLen: nameLen}
		pos += 32
	}
	names := make([]string, numModes)
	for i, m := range modeInfos {
		end := pos + m.nameLen
		if end > len(reply) {
			end = len(reply)
		}
		names[i] = string(reply[pos:end])
		pos += m.nameLen
	}

	modesByID := make(map[uint32]monitors.Mode, numModes)
	modeIDsByName := make(map[string]uint32, numModes)
	for i, m := range modeInfos {
		modesByID[m.id] = monitors.Mode{Name: names[i], Refresh: m.refresh}
		modeIDsByName[names[i]] = m.id
	}

	outputIDsByName := make(map[string]uint32, numOutputs)
	res := monitors.ScreenResources{Crtcs: crtcIDs}
	for _, outID := range outputIDs {
		out, err := r.getOutputInfo(outID, modesByID)
		if err != nil {
			return monitors.ScreenResources{}, err
		}
		outputIDsByName[out.Name] = outID
		res.Outputs = append(res.Outputs, out)
	}
	r.outputIDsByName = outputIDsByName
	r.modeIDsByName = modeIDsByName
	return res, nil
}

func (r *RandR) getOutputInfo(outputID uint32, modesByID map[uint32]monitors.Mode) (monitors.Output, error) {
	body := put32(nil, r.conn.order, outputID)
	body = put32(body, r.conn.order, 0) // config-timestamp: 0 == current
	reply, err := r.roundTrip(randrGetOutputInfo, body)
	if err != nil {
		return monitors.Output{}, fmt.Errorf("x11: getting output info for %#x: %w", outputID, err)
	}
	o := r.conn.order
	crtc := monitors.CrtcID(o.Uint32(reply[12:16]))
	connection := reply[24]
	numCrtcs := int(o.Uint16(reply[26:28]))
	numModes := int(o.Uint16(reply[28:30]))
	numClones := int(o.Uint16(reply[32:34]))
	nameLen := int(o.Uint16(reply[34:36]))

	pos := 36 + numCrtcs*4
	out := monitors.Output{Connected: connection == randrConnected, Crtc: crtc}
	for i := 0; i < numModes; i++ {
		modeID := o.Uint32(reply[pos : pos+4])
		if m, ok := modesByID[modeID]; ok {
			out.Modes = append(out.Modes, m)
		}
		pos += 4
	}
	pos += numClones * 4
	if pos+nameLen <= len(reply) {
		out.Name = string(reply[pos : pos+nameLen])
	}

	if crtc != monitors.NoCrtc {
		info, err := r.getCrtcInfo(crtc)
		if err == nil {
			out.Mode = info.mode
			out.Refresh = info.refresh
			out.X, out.Y = info.x, info.y
			out.Rotation = info.rotation
		}
	}
	return out, nil
}

type crtcConfig struct {
	mode     string
	refresh  float64
	x, y     int
	rotation monitors.Rotation
}

func (r *RandR) getCrtcInfo(crtc monitors.CrtcID) (crtcConfig, error) {
	body := put32(nil, r.conn.order, uint32(crtc))
	body = put32(body, r.conn.order, 0)
	reply, err := r.roundTrip(randrGetCrtcInfo, body)
	if err != nil {
		return crtcConfig{}, fmt.Errorf("x11: getting CRTC info for %#x: %w", crtc, err)
	}
	o := r.conn.order
	x := int(int16(o.Uint16(reply[12:14])))
	y := int(int16(o.Uint16(reply[14:16])))
	rotation := rotationFromBits(o.Uint16(reply[24:26]))
	return crtcConfig{x: x, y: y, rotation: rotation}, nil
}

func rotationFromBits(bits uint16) monitors.Rotation {
	switch {
	case bits&0x2 != 0:
		return monitors.Rotate90
	case bits&0x4 != 0:
		return monitors.Rotate180
	case bits&0x8 != 0:
		return monitors.Rotate270
	default:
		return monitors.Rotate0
	}
}

func rotationToBits(rot monitors.Rotation) uint16 {
	switch rot {
	case monitors.Rotate90:
		return 0x2
	case monitors.Rotate180:
		return 0x4
	case monitors.Rotate270:
		return 0x8
	default:
		return 0x1
	}
}

// SetCrtcConfig implements monitors.XRandRProvider: the wire request
// takes mode/output IDs rather than names, so it resolves both
// against a fresh ScreenResources call first.
func (r *RandR) SetCrtcConfig(crtc monitors.CrtcID, mode string, refresh float64, x, y int, rotation monitors.Rotation, outputs []string) (monitors.CrtcID, error) {
	modeID, outputIDs, err := r.resolveModeAndOutputs(mode, outputs)
	if err != nil {
		return crtc, err
	}
	body := put32(nil, r.conn.order, uint32(crtc))
	body = put32(body, r.conn.order, 0) // config-timestamp
	body = put32(body, r.conn.order, 0) // timestamp: CurrentTime
	body = put16(body, r.conn.order, uint16(int16(x)))
	body = put16(body, r.conn.order, uint16(int16(y)))
	body = put32(body, r.conn.order, modeID)
	body = put16(body, r.conn.order, rotationToBits(rotation))
	body = append(body, 0, 0) // pad
	for _, id := range outputIDs {
		body = put32(body, r.conn.order, id)
	}
	if _, err := r.roundTrip(randrSetCrtcConfig, body); err != nil {
		return crtc, fmt.Errorf("x11: configuring CRTC %#x: %w", crtc, err)
	}
	return crtc, nil
}

func (r *RandR) resolveModeAndOutputs(mode string, outputNames []string) (modeID uint32, outputIDs []uint32, err error) {
	if _, err := r.ScreenResources(); err != nil {
		return 0, nil, err
	}
	modeID, ok := r.modeIDsByName[mode]
	if !ok {
		return 0, nil, fmt.Errorf("x11: no such mode %q", mode)
	}
	for _, name := range outputNames {
		id, ok := r.outputIDsByName[name]
		if !ok {
			return 0, nil, fmt.Errorf("x11: no such output %q", name)
		}
		outputIDs = append(outputIDs, id)
	}
	return modeID, outputIDs, nil
}

// DisableCrtc implements monitors.XRandRProvider by issuing
// SetCrtcConfig with a null mode and no outputs.
func (r *RandR) DisableCrtc(crtc monitors.CrtcID) error {
	body := put32(nil, r.conn.order, uint32(crtc))
	body = put32(body, r.conn.order, 0)
	body = put32(body, r.conn.order, 0)
	body = put16(body, r.conn.order, 0)
	body = put16(body, r.conn.order, 0)
	body = put32(body, r.conn.order, 0) // mode None
	body = put16(body, r.conn.order, rotationToBits(monitors.Rotate0))
	body = append(body, 0, 0)
	if _, err := r.roundTrip(randrSetCrtcConfig, body); err != nil {
		return fmt.Errorf("x11: disabling CRTC %#x: %w", crtc, err)
	}
	return nil
}

// SetScreenSize implements monitors.XRandRProvider.
func (r *RandR) SetScreenSize(widthPx, heightPx, widthMM, heightMM int) error {
	body := put16(nil, r.conn.order, uint16(widthPx))
	body = put16(body, r.conn.order, uint16(heightPx))
	body = put32(body, r.conn.order, uint32(widthMM))
	body = put32(body, r.conn.order, uint32(heightMM))
	full := put32(nil, r.conn.order, uint32(r.root))
	full = append(full, body...)
	if err := r.conn.sendOnly(r.major, randrSetScreenSize, full); err != nil {
		return fmt.Errorf("x11: setting screen size: %w", err)
	}
	return nil
}
