package xsettings

import "fmt"

// Window is an X11 window ID; None is the distinguished "no window"
// value used by GetSelectionOwner when nobody owns a selection.
type Window uint32

const None Window = 0

// XConn is the narrow X11 capability the selection owner needs: atom
// interning, selection get/set, structure-notify registration on a
// watched window, and the MANAGER client-message broadcast used to
// announce a claim. Grab/Ungrab bracket the read-then-write sequence
// in SetServerOwner; a concrete connection is expected to make these
// re-entrant so nested callers can grab freely.
type XConn interface {
	InternAtom(name string) (uint32, error)
	GetSelectionOwner(selection uint32) (Window, error)
	SetSelectionOwner(selection uint32, owner Window) error
	SelectStructureNotify(win Window) error
	SendManagerMessage(root Window, selection uint32, owner Window) error
	GrabServer() error
	UngrabServer() error
}

// Owner tracks ownership of the `_XSETTINGS_S<screen>` selection on
// behalf of our control window.
type Owner struct {
	conn   XConn
	window Window
	root   Window
	screen int

	selectionAtom uint32
	managerAtom   uint32
	resolved      bool
	owned         bool
}

// NewOwner builds an Owner for the given screen number, backed by
// conn. window is our control window; root is that screen's root
// window, the destination of the MANAGER announcement.
func NewOwner(conn XConn, screen int, window, root Window) *Owner {
	return &Owner{conn: conn, window: window, root: root, screen: screen}
}

func (o *Owner) resolveAtoms() error {
	if o.resolved {
		return nil
	}
	sel, err := o.conn.InternAtom(fmt.Sprintf("_XSETTINGS_S%d", o.screen))
	if err != nil {
		return fmt.Errorf("xsettings: interning selection atom: %w", err)
	}
	mgr, err := o.conn.InternAtom("MANAGER")
	if err != nil {
		return fmt.Errorf("xsettings: interning MANAGER atom: %w", err)
	}
	o.selectionAtom = sel
	o.managerAtom = mgr
	o.resolved = true
	return nil
}

// SelectionAtom returns the resolved `_XSETTINGS_S<screen>` atom,
// resolving it first if needed.
func (o *Owner) SelectionAtom() (uint32, error) {
	if err := o.resolveAtoms(); err != nil {
		return 0, err
	}
	return o.selectionAtom, nil
}

// SetServerOwner attempts to claim the selection under a server grab:
// if another window already owns it, we instead arm StructureNotify
// on that window (so its death wakes us for a retry) and report
// false. Otherwise we take ownership, verify the claim stuck, and
// broadcast the MANAGER client-message on root.
func (o *Owner) SetServerOwner() (bool, error) {
	if err := o.resolveAtoms(); err != nil {
		return false, err
	}
	if err := o.conn.GrabServer(); err != nil {
		return false, fmt.Errorf("xsettings: grabbing server: %w", err)
	}
	defer o.conn.UngrabServer()

	current, err := o.conn.GetSelectionOwner(o.selectionAtom)
	if err != nil {
		return false, fmt.Errorf("xsettings: reading selection owner: %w", err)
	}
	if current != None && current != o.window {
		if err := o.conn.SelectStructureNotify(current); err != nil {
			return false, fmt.Errorf("xsettings: watching current owner: %w", err)
		}
		o.owned = false
		return false, nil
	}

	if err := o.conn.SetSelectionOwner(o.selectionAtom, o.window); err != nil {
		return false, fmt.Errorf("xsettings: claiming selection: %w", err)
	}
	verify, err := o.conn.GetSelectionOwner(o.selectionAtom)
	if err != nil {
		return false, fmt.Errorf("xsettings: verifying selection owner: %w", err)
	}
	if verify != o.window {
		o.owned = false
		return false, nil
	}
	if err := o.conn.SendManagerMessage(o.root, o.selectionAtom, o.window); err != nil {
		return false, fmt.Errorf("xsettings: announcing ownership: %w", err)
	}
	o.owned = true
	return true, nil
}

// HandleSelectionClear processes a SelectionClear for the given atom.
// It reports whether the event was ours to handle; when it is, our
// ownership is released and Owned reports false until SetServerOwner
// is called again.
func (o *Owner) HandleSelectionClear(selection uint32) bool {
	if !o.resolved || selection != o.selectionAtom {
		return false
	}
	o.owned = false
	return true
}

// Owned reports whether we currently hold the selection.
func (o *Owner) Owned() bool { return o.owned }
