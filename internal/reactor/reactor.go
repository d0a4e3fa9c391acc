// Package reactor drives pekwm_sys: a single-threaded cooperative loop
// multiplexing stdin commands, X events, and timeouts, dispatching to
// the configuration, XSETTINGS, monitor and daytime engines. It is a
// deliberate departure from the teacher's goroutine/channel daemon
// (cmd/service/daemon): the ordering guarantee that a due timeout
// preempts pending stdin input requires one poller deciding
// explicitly, not work fanned out across goroutines merged by
// channels.
package reactor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"golang.org/x/sys/unix"

	"github.com/pekwm/pekwm-sys/internal/cfgparser"
	"github.com/pekwm/pekwm-sys/internal/daytime"
	"github.com/pekwm/pekwm-sys/internal/geoloc"
	"github.com/pekwm/pekwm-sys/internal/monitors"
	"github.com/pekwm/pekwm-sys/internal/pekwmlog"
	"github.com/pekwm/pekwm-sys/internal/sysconfig"
	"github.com/pekwm/pekwm-sys/internal/sysenv"
	"github.com/pekwm/pekwm-sys/internal/timeouts"
	"github.com/pekwm/pekwm-sys/internal/x11"
	"github.com/pekwm/pekwm-sys/internal/xsettings"
)

// dayChangedKey is the one timeout action the reactor schedules: a
// re-evaluation of the current time-of-day at its next boundary.
const dayChangedKey = 1

// Config gathers pekwm_sys's startup parameters, assembled by
// cmd/pekwmsys's flag parsing and handed to New.
type Config struct {
	ConfigPath  string
	Display     string
	Theme       string
	LogLevel    pekwmlog.Level
	Output      io.Writer
	Stdin       io.Reader
	Interactive bool
}

// Reactor is the running pekwm_sys process.
type Reactor struct {
	log *pekwmlog.Logger

	conn  *x11.Conn
	root  x11.Window
	rm    *x11.ResourceManager
	randr *x11.RandR

	cfgPath       string
	sys           *sysconfig.Sys
	xsettingsPath string

	owner        *xsettings.Owner
	registry     *xsettings.Registry
	settingsConn x11.SettingsConn

	monitors *monitors.Store
	location geoloc.Client

	wheel    *timeouts.Wheel
	override sysconfig.TimeOfDayMode
	current  sysconfig.TimeOfDayMode

	stdinR      io.Reader
	stdin       *bufio.Scanner
	interactive bool
	stopped     int32
	sig         chan os.Signal
	selfR       *os.File
	selfW       *os.File
	control     *control
}

// New dials the X display, loads configuration, and prepares (without
// running) the reactor.
func New(cfg Config) (*Reactor, error) {
	log := pekwmlog.New(cfg.Output, cfg.LogLevel)

	conn, err := x11.Dial(cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("reactor: connecting to display: %w", err)
	}
	root, err := conn.RootWindow(conn.DefaultScreen())
	if err != nil {
		conn.Close()
		return nil, err
	}
	rm, err := x11.NewResourceManager(conn, root)
	if err != nil {
		conn.Close()
		return nil, err
	}
	randr, err := x11.NewRandR(conn, root)
	if err != nil {
		log.Warnf("RandR unavailable, monitor support degraded: %v", err)
		randr = nil
	}

	r := &Reactor{
		log:          log,
		conn:         conn,
		root:         root,
		rm:           rm,
		randr:        randr,
		cfgPath:      cfg.ConfigPath,
		settingsConn: x11.SettingsConn{Conn: conn},
		location:     geoloc.NewHTTPClient("https://ipapi.co/json/", nil),
		wheel:        timeouts.New(nil),
	}
	r.monitors = monitors.NewStore(randrProvider(randr))

	if err := r.loadConfig(cfg.Theme); err != nil {
		conn.Close()
		return nil, err
	}

	stdin := cfg.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	r.stdinR = stdin
	r.interactive = cfg.Interactive
	r.stdin = bufio.NewScanner(stdin)
	return r, nil
}

// readCommand reads one command off stdin in whichever wire format
// the process was started with: newline-terminated text when
// interactive, or a uint32 host-byte-order length prefix followed by
// that many bytes of shell-split text otherwise.
func (r *Reactor) readCommand() (string, bool) {
	if r.interactive {
		if !r.stdin.Scan() {
			return "", false
		}
		return r.stdin.Text(), true
	}
	var length uint32
	if err := binary.Read(r.stdinR, binary.NativeEndian, &length); err != nil {
		return "", false
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r.stdinR, buf); err != nil {
		return "", false
	}
	return string(buf), true
}

// randrProvider lets a nil *x11.RandR flow through as a nil
// monitors.XRandRProvider instead of a non-nil interface wrapping a
// nil pointer.
func randrProvider(r *x11.RandR) monitors.XRandRProvider {
	if r == nil {
		return nil
	}
	return r
}

func (r *Reactor) loadConfig(themeOverride string) error {
	parser := cfgparser.New(cfgparser.Options{
		AtomReader:        r.conn,
		ResourceReader:    r.rm,
		RegisterXResource: true,
		Diagnostics: func(d cfgparser.Diagnostic) {
			r.log.Warnf("config: %s", d.String())
		},
	})
	if r.cfgPath != "" {
		if !parser.ParseFile(r.cfgPath, false) {
			return fmt.Errorf("reactor: parsing %s failed", r.cfgPath)
		}
	}
	r.sys = sysconfig.Load(parser.Root(), func(format string, args ...interface{}) {
		r.log.Warnf(format, args...)
	})
	r.current = r.sys.TimeOfDay
	r.override = r.sys.TimeOfDay
	r.xsettingsPath = expandHome(r.sys.XSettingsPath)
	if themeOverride != "" {
		r.loadTheme(themeOverride)
	}
	return nil
}

func (r *Reactor) loadTheme(path string) {
	theme := cfgparser.New(cfgparser.Options{AtomReader: r.conn, ResourceReader: r.rm})
	if !theme.ParseFile(path, false) {
		r.log.Warnf("theme: failed to parse %s", path)
		return
	}
	r.sys.XResources = loadThemeResources(theme.Root())
}

func loadThemeResources(root *cfgparser.Entry) sysconfig.XResourceSet {
	var set sysconfig.XResourceSet
	section := root.Find("XResources")
	if section == nil {
		return set
	}
	mode := func(name string) map[string]string {
		e := section.Find(name)
		if e == nil {
			return nil
		}
		m := make(map[string]string, len(e.Children))
		for _, c := range e.Children {
			m[c.Name] = c.Value
		}
		return m
	}
	set.Dawn, set.Day, set.Dusk, set.Night = mode("Dawn"), mode("Day"), mode("Dusk"), mode("Night")
	return set
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}

// Shutdown requests the loop exit at its next iteration; safe to call
// from any goroutine (the service wrapper's Stop callback, a signal
// handler).
func (r *Reactor) Shutdown() {
	atomic.StoreInt32(&r.stopped, 1)
	if r.selfW != nil {
		r.selfW.Write([]byte{0})
	}
}

func (r *Reactor) stopRequested() bool {
	return atomic.LoadInt32(&r.stopped) != 0
}

func isNaN(f float64) bool { return f != f }

// effectiveMode resolves Auto against daytime.Compute, or returns the
// sticky override otherwise.
func (r *Reactor) effectiveMode(now time.Time) sysconfig.TimeOfDayMode {
	if r.override != sysconfig.TimeOfDayAuto {
		return r.override
	}
	if isNaN(r.sys.Latitude) || isNaN(r.sys.Longitude) {
		return sysconfig.TimeOfDayDay
	}
	result := daytime.Compute(now.Unix(), r.sys.Latitude, r.sys.Longitude, 0)
	if !result.Polar && result.Sunrise <= now.Unix() && now.Unix() <= result.Sunset {
		return sysconfig.TimeOfDayDay
	}
	return sysconfig.TimeOfDayNight
}

func (r *Reactor) nextBoundary(now time.Time) time.Time {
	if isNaN(r.sys.Latitude) || isNaN(r.sys.Longitude) {
		return now.Add(24 * time.Hour)
	}
	result := daytime.Compute(now.Unix(), r.sys.Latitude, r.sys.Longitude, 0)
	ts := result.Sunset
	if now.Unix() > result.Sunset {
		ts = result.Sunrise + 86400
	}
	return time.Unix(ts, 0)
}

func (r *Reactor) scheduleNextDayChange(now time.Time) {
	r.wheel.Replace(dayChangedKey, r.nextBoundary(now))
}

// Run executes the startup sequence and then the select loop until
// Exit is received or Shutdown is called. Within one iteration, due
// timeouts are handled before X events, which are handled before
// stdin — a due timeout must preempt pending stdin input so a racing
// Reload observes an already-transitioned time-of-day.
func (r *Reactor) Run() error {
	if err := r.startup(); err != nil {
		return err
	}
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		r.log.Debugf("sd_notify: %v", err)
	} else if sent {
		r.log.Debugf("sd_notify: reported ready")
	}

	r.sig = make(chan os.Signal, 1)
	signal.Notify(r.sig, os.Interrupt)
	if selfR, selfW, err := os.Pipe(); err == nil {
		r.selfR, r.selfW = selfR, selfW
	}
	go func() {
		for range r.sig {
			r.Shutdown()
		}
	}()

	if err := r.startControlSocket(); err != nil {
		r.log.Warnf("control socket unavailable: %v", err)
	}
	defer r.stopControlSocket()

	stdinFd := int(os.Stdin.Fd())
	for !r.stopRequested() {
		if remaining, wait, action, ok := r.wheel.GetNextTimeout(); ok {
			r.handleTimeout(action.Key)
			continue
		} else if wait {
			r.blockUntil(stdinFd, remaining)
		} else {
			r.blockUntil(stdinFd, 30*time.Second)
		}
	}
	return nil
}

func (r *Reactor) handleTimeout(key int) {
	switch key {
	case dayChangedKey:
		now := time.Now()
		mode := r.effectiveMode(now)
		if mode != r.current {
			r.transition(mode)
		}
		r.scheduleNextDayChange(now)
	}
}

func (r *Reactor) blockUntil(stdinFd int, timeout time.Duration) {
	xFd := -1
	if fd, err := r.conn.Fd(); err == nil {
		xFd = int(fd)
	}
	stdinReady, xReady, err := r.selectOnce(stdinFd, xFd, timeout)
	if err != nil {
		r.log.Warnf("select: %v", err)
		return
	}
	r.drainControlCommands()
	if xReady {
		for {
			ev, err := r.conn.NextEvent()
			if err != nil {
				break
			}
			r.handleXEvent(ev)
			if !r.conn.Pending() {
				break
			}
		}
	}
	if stdinReady {
		if line, ok := r.readCommand(); ok {
			r.dispatch(line)
		} else {
			r.Shutdown()
		}
	}
}

func (r *Reactor) selectOnce(stdinFd, xFd int, timeout time.Duration) (stdinReady, xReady bool, err error) {
	rfds := &unix.FdSet{}
	maxFd := stdinFd
	setFd(rfds, stdinFd)
	if xFd >= 0 {
		setFd(rfds, xFd)
		if xFd > maxFd {
			maxFd = xFd
		}
	}
	if r.selfR != nil {
		fd := int(r.selfR.Fd())
		setFd(rfds, fd)
		if fd > maxFd {
			maxFd = fd
		}
	}
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	n, err := unix.Select(maxFd+1, rfds, nil, nil, &tv)
	if err != nil {
		if err == unix.EINTR {
			return false, false, nil
		}
		return false, false, err
	}
	if n == 0 {
		return false, false, nil
	}
	if r.selfR != nil && isFdSet(rfds, int(r.selfR.Fd())) {
		var wake [64]byte
		r.selfR.Read(wake[:])
	}
	return isFdSet(rfds, stdinFd), xFd >= 0 && isFdSet(rfds, xFd), nil
}

func setFd(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func isFdSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<(uint(fd)%64)) != 0
}

func (r *Reactor) handleXEvent(ev x11.Event) {
	switch ev.Code {
	case x11.SelectionClear:
		selection := r.conn.Order().Uint32(ev.Raw[8:12])
		if r.owner != nil && r.owner.HandleSelectionClear(selection) {
			r.log.Infof("XSETTINGS selection lost, no longer owner")
			r.reclaimXSettings()
		}
	case x11.DestroyNotify:
		r.log.Debugf("DestroyNotify received")
		if r.owner != nil && !r.owner.Owned() {
			r.reclaimXSettings()
		}
	}
}

// reclaimXSettings re-attempts SetServerOwner after the previous owner
// is gone. A successful claim pushes the current settings to the new
// selection; a failed one leaves SetServerOwner's own StructureNotify
// registration armed on whoever holds it now, so its death wakes us
// again.
func (r *Reactor) reclaimXSettings() {
	claimed, err := r.owner.SetServerOwner()
	if err != nil {
		r.log.Warnf("reclaiming XSETTINGS selection: %v", err)
		return
	}
	if !claimed {
		return
	}
	r.log.Infof("reclaimed XSETTINGS selection")
	if err := r.pushXSettings(); err != nil {
		r.log.Warnf("pushing XSETTINGS after reclaim: %v", err)
	}
}

func (r *Reactor) runCommands(commands []string, env map[string]string) {
	for _, cmdline := range commands {
		cmd := exec.Command("/bin/sh", "-c", cmdline)
		cmd.Env = sysenv.WithOverrides(env)
		var out, errOut bytes.Buffer
		cmd.Stdout, cmd.Stderr = &out, &errOut
		if err := cmd.Run(); err != nil {
			r.log.Warnf("command %q failed: %v (%s)", cmdline, err, errOut.String())
		}
	}
}
