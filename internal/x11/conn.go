// Package x11 is a minimal, pure-Go X11 client: connection setup,
// atoms, properties, selections, events, server grabs, and a RandR
// request layer, all encoded/decoded directly over the display's byte
// stream. It exists so the reactor and monitor store can be driven
// against a real X server without cgo, grounded the same way the
// teacher wraps another kernel-level byte protocol purely in
// encode/decode terms (no cgo) rather than linking a C client
// library.
package x11

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
)

// Window, Atom and Time are the X11 resource/value kinds this package
// moves around; all are fixed-width protocol values.
type (
	Window uint32
	Atom   uint32
	Time   uint32
)

// None is the distinguished "no resource" value shared by windows,
// atoms and times.
const None = 0

// CurrentTime asks the server to stamp a request with its own
// current time rather than a caller-supplied one.
const CurrentTime Time = 0

// Screen is one screen of the connection setup reply: its root
// window and the root's geometry are the only fields this client
// needs.
type Screen struct {
	Root       Window
	WidthInMM  uint16
	HeightInMM uint16
	WidthInPx  uint16
	HeightInPx uint16
}

// Conn is one connection to an X display, providing synchronous
// request/reply plumbing over the display's byte stream.
type Conn struct {
	mu          sync.Mutex
	rw          net.Conn
	r           *bufio.Reader
	order       binary.ByteOrder
	seq         uint16
	resourceID  uint32
	resourceInc uint32
	resourceMax uint32
	screens     []Screen
	defaultScr  int

	atomsByName map[string]Atom
	atomsByID   map[Atom]string

	extensions map[string]extensionInfo

	pending []Event
	grabs   grabDepth
}

type extensionInfo struct {
	major   byte
	present bool
}

// Dial parses a $DISPLAY-style address (e.g. ":0", ":0.1",
// "host:0.0") and completes the X11 connection setup handshake.
func Dial(display string) (*Conn, error) {
	if display == "" {
		display = os.Getenv("DISPLAY")
	}
	network, address, screen, err := parseDisplay(display)
	if err != nil {
		return nil, err
	}
	rw, err := net.Dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("x11: dialing display %q: %w", display, err)
	}
	c := &Conn{
		rw:          rw,
		r:           bufio.NewReaderSize(rw, 4096),
		order:       binary.LittleEndian,
		atomsByName: make(map[string]Atom),
		atomsByID:   make(map[Atom]string),
		extensions:  make(map[string]extensionInfo),
		defaultScr:  screen,
	}
	if err := c.handshake(); err != nil {
		rw.Close()
		return nil, err
	}
	return c, nil
}

// parseDisplay splits a $DISPLAY value into a dial network/address and
// the requested screen number. ":N" and ":N.S" dial the conventional
// Unix-domain socket; "host:N[.S]" dials TCP on 6000+N.
func parseDisplay(display string) (network, address string, screen int, err error) {
	if display == "" {
		return "", "", 0, fmt.Errorf("x11: no display specified (set $DISPLAY or pass one explicitly)")
	}
	host, rest, ok := strings.Cut(display, ":")
	if !ok {
		return "", "", 0, fmt.Errorf("x11: malformed display %q", display)
	}
	displayNum, screenPart, _ := strings.Cut(rest, ".")
	n, err := strconv.Atoi(displayNum)
	if err != nil {
		return "", "", 0, fmt.Errorf("x11: malformed display number in %q: %w", display, err)
	}
	if screenPart != "" {
		screen, err = strconv.Atoi(screenPart)
		if err != nil {
			return "", "", 0, fmt.Errorf("x11: malformed screen number in %q: %w", display, err)
		}
	}
	if host == "" {
		return "unix", fmt.Sprintf("/tmp/.X11-unix/X%d", n), screen, nil
	}
	return "tcp", fmt.Sprintf("%s:%d", host, 6000+n), screen, nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.rw.Close() }

// Fd returns the file descriptor backing the connection, for use in a
// select/poll set; it only works when the connection is a Unix or TCP
// socket, which Dial always produces.
func (c *Conn) Fd() (uintptr, error) {
	sc, ok := c.rw.(syscall.Conn)
	if !ok {
		return 0, fmt.Errorf("x11: connection does not expose a file descriptor")
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, err
	}
	var fd uintptr
	if err := raw.Control(func(f uintptr) { fd = f }); err != nil {
		return 0, err
	}
	return fd, nil
}

// DefaultScreen returns the screen requested in the dialed display
// string (0 if none was given).
func (c *Conn) DefaultScreen() int { return c.defaultScr }

// Screens returns the connection setup reply's per-screen records.
func (c *Conn) Screens() []Screen { return c.screens }

// Order returns the connection's wire byte order, for callers that
// need to decode raw event bytes themselves (e.g. the SelectionClear
// selection atom, which Event.Raw carries undecoded).
func (c *Conn) Order() binary.ByteOrder { return c.order }

// RootWindow returns the root window of the given screen index.
func (c *Conn) RootWindow(screen int) (Window, error) {
	if screen < 0 || screen >= len(c.screens) {
		return 0, fmt.Errorf("x11: no such screen %d", screen)
	}
	return c.screens[screen].Root, nil
}

func (c *Conn) nextSeq() uint16 {
	c.seq++
	return c.seq
}

// NewResourceID allocates the next client-owned resource ID within
// the range the server granted at connection setup.
func (c *Conn) NewResourceID() (uint32, error) {
	id := c.resourceID
	next := id + c.resourceInc
	if next&^c.resourceMax != id&^c.resourceMax {
		return 0, fmt.Errorf("x11: resource ID space exhausted")
	}
	c.resourceID = next
	return id, nil
}

func pad4(n int) int { return (4 - n%4) % 4 }
