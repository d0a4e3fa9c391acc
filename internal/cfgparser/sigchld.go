package cfgparser

import (
	"os/signal"
	"syscall"
)

// Go's os/exec already reaps children via wait4 and is not subject to
// the classic C pitfall of a blocking read() being starved by an
// ignored SIGCHLD; restoreSIGCHLDDefault/Previous exist to keep the
// observable signal disposition faithful for any other code in the
// process (e.g. a parent launcher) that inspects it with sigaction(2)
// while a command source is draining.
var sigchldWasIgnored bool

func restoreSIGCHLDDefault() {
	sigchldWasIgnored = signal.Ignored(syscall.SIGCHLD)
	signal.Reset(syscall.SIGCHLD)
}

func restoreSIGCHLDPrevious() {
	if sigchldWasIgnored {
		signal.Ignore(syscall.SIGCHLD)
	}
}
