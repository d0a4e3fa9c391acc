package x11

import "github.com/pekwm/pekwm-sys/internal/xsettings"

// SettingsConn adapts *Conn to xsettings.XConn: the selection-owner
// state machine only needs atom/selection/grab primitives, named and
// typed slightly differently there (plain uint32 atoms, xsettings'
// own Window alias) than this package's own Atom/Window types.
type SettingsConn struct{ *Conn }

func (s SettingsConn) InternAtom(name string) (uint32, error) {
	a, err := s.Conn.InternAtom(name)
	return uint32(a), err
}

func (s SettingsConn) GetSelectionOwner(selection uint32) (xsettings.Window, error) {
	w, err := s.Conn.GetSelectionOwner(Atom(selection))
	return xsettings.Window(w), err
}

func (s SettingsConn) SetSelectionOwner(selection uint32, owner xsettings.Window) error {
	return s.Conn.SetSelectionOwner(Atom(selection), Window(owner), CurrentTime)
}

func (s SettingsConn) SelectStructureNotify(win xsettings.Window) error {
	return s.Conn.SelectStructureNotify(Window(win))
}

func (s SettingsConn) SendManagerMessage(root xsettings.Window, selection uint32, owner xsettings.Window) error {
	return s.Conn.SendManagerMessage(Window(root), Atom(selection), Window(owner), CurrentTime)
}

func (s SettingsConn) GrabServer() error   { return s.Conn.GrabServer() }
func (s SettingsConn) UngrabServer() error { return s.Conn.UngrabServer() }
