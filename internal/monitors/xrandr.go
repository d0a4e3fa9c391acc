// Package monitors implements the XRandR monitor-configuration store:
// capturing the live topology, persisting named layouts keyed by the
// connected output set, and re-applying a saved layout's CRTC
// assignments.
package monitors

// CrtcID identifies an XRandR CRTC; NoCrtc marks an output with no
// CRTC currently allocated.
type CrtcID uint32

const NoCrtc CrtcID = 0

// Rotation is one of the four XRandR output rotations.
type Rotation int

const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// Mode is one display mode an output advertises.
type Mode struct {
	Name    string
	Refresh float64
}

// Output is the live state of one XRandR output.
type Output struct {
	Name      string
	Connected bool
	EDIDMD5   string
	Modes     []Mode
	Crtc      CrtcID
	Mode      string
	Refresh   float64
	X, Y      int
	Rotation  Rotation
}

// ScreenResources is the live XRandR topology: screen geometry, every
// output (connected or not), and the set of known CRTCs.
type ScreenResources struct {
	WidthPx, HeightPx int
	WidthMM, HeightMM int
	Outputs           []Output
	Crtcs             []CrtcID
}

// XRandRProvider is the narrow X11 capability the monitor store
// needs, mirroring the XConn pattern used by the xsettings selection
// owner: a handful of named operations rather than the full protocol,
// so tests substitute an in-memory fake.
type XRandRProvider interface {
	ScreenResources() (ScreenResources, error)
	SetCrtcConfig(crtc CrtcID, mode string, refresh float64, x, y int, rotation Rotation, outputs []string) (CrtcID, error)
	DisableCrtc(crtc CrtcID) error
	SetScreenSize(widthPx, heightPx, widthMM, heightMM int) error
}
