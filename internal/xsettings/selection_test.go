package xsettings_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekwm/pekwm-sys/internal/xsettings"
)

type fakeConn struct {
	atoms     map[string]uint32
	nextAtom  uint32
	owners    map[uint32]xsettings.Window
	notified  []xsettings.Window
	announced []xsettings.Window
	grabs     int
}

func newFakeConn() *fakeConn {
	return &fakeConn{atoms: make(map[string]uint32), owners: make(map[uint32]xsettings.Window), nextAtom: 1}
}

func (f *fakeConn) InternAtom(name string) (uint32, error) {
	if a, ok := f.atoms[name]; ok {
		return a, nil
	}
	f.nextAtom++
	f.atoms[name] = f.nextAtom
	return f.nextAtom, nil
}

func (f *fakeConn) GetSelectionOwner(selection uint32) (xsettings.Window, error) {
	return f.owners[selection], nil
}

func (f *fakeConn) SetSelectionOwner(selection uint32, owner xsettings.Window) error {
	f.owners[selection] = owner
	return nil
}

func (f *fakeConn) SelectStructureNotify(win xsettings.Window) error {
	f.notified = append(f.notified, win)
	return nil
}

func (f *fakeConn) SendManagerMessage(root xsettings.Window, selection uint32, owner xsettings.Window) error {
	f.announced = append(f.announced, owner)
	return nil
}

func (f *fakeConn) GrabServer() error   { f.grabs++; return nil }
func (f *fakeConn) UngrabServer() error { f.grabs--; return nil }

func TestSetServerOwnerClaimsFreeSelection(t *testing.T) {
	conn := newFakeConn()
	owner := xsettings.NewOwner(conn, 0, 100, 1)

	ok, err := owner.SetServerOwner()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, owner.Owned())
	require.Len(t, conn.announced, 1)
	assert.Equal(t, xsettings.Window(100), conn.announced[0])
	assert.Equal(t, 0, conn.grabs, "grab/ungrab must balance")
}

func TestSetServerOwnerDefersToExistingOwner(t *testing.T) {
	conn := newFakeConn()
	sel, err := conn.InternAtom(fmt.Sprintf("_XSETTINGS_S%d", 0))
	require.NoError(t, err)
	conn.owners[sel] = 999

	owner := xsettings.NewOwner(conn, 0, 100, 1)
	ok, err := owner.SetServerOwner()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, owner.Owned())
	assert.Equal(t, []xsettings.Window{999}, conn.notified)
	assert.Empty(t, conn.announced)
}

func TestHandleSelectionClearReleasesOwnership(t *testing.T) {
	conn := newFakeConn()
	owner := xsettings.NewOwner(conn, 0, 100, 1)
	ok, err := owner.SetServerOwner()
	require.NoError(t, err)
	require.True(t, ok)

	sel, err := owner.SelectionAtom()
	require.NoError(t, err)

	assert.False(t, owner.HandleSelectionClear(sel+1), "unrelated selection must be ignored")
	assert.True(t, owner.Owned())

	assert.True(t, owner.HandleSelectionClear(sel))
	assert.False(t, owner.Owned())
}
