// Command pekwmctl sends one command to a running pekwm_sys over its
// stdin protocol, length-prefixed as pekwm_sys expects in
// non-interactive mode. When PEKWM_SYS_SOCK names a control socket,
// the command is written there instead; stdin remains the
// authoritative transport.
package main

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strings"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 1
	}

	cmd, err := encode(args[0], args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "pekwmctl:", err)
		return 1
	}

	if sock := os.Getenv("PEKWM_SYS_SOCK"); sock != "" {
		return sendSocket(sock, cmd)
	}
	return sendStdout(cmd)
}

// encode maps a pekwmctl subcommand to the wire-protocol verb and
// argument line pekwm_sys's stdin dispatcher expects.
func encode(subcommand string, rest []string) (string, error) {
	switch subcommand {
	case "exit":
		return "Exit", nil
	case "reload":
		return "Reload", nil
	case "theme":
		if len(rest) != 1 {
			return "", fmt.Errorf("theme requires exactly one path argument")
		}
		return "Theme " + rest[0], nil
	case "time-of-day":
		if len(rest) != 1 {
			return "", fmt.Errorf("time-of-day requires exactly one argument")
		}
		return "TimeOfDay " + rest[0], nil
	case "dpi":
		if len(rest) != 1 {
			return "", fmt.Errorf("dpi requires exactly one argument")
		}
		return "Dpi " + rest[0], nil
	case "mon-load":
		return "MonLoad", nil
	case "mon-save":
		return "MonSave", nil
	case "xset":
		if len(rest) != 2 {
			return "", fmt.Errorf("xset requires <name> <string>")
		}
		return "XSet " + strings.Join(rest, " "), nil
	case "xset-int":
		if len(rest) != 2 {
			return "", fmt.Errorf("xset-int requires <name> <int>")
		}
		return "XSetInt " + strings.Join(rest, " "), nil
	case "xset-color":
		if len(rest) != 2 {
			return "", fmt.Errorf("xset-color requires <name> #RRGGBB[AA]")
		}
		return "XSetColor " + strings.Join(rest, " "), nil
	case "xsave":
		return "XSave", nil
	default:
		return "", fmt.Errorf("unrecognised subcommand %q", subcommand)
	}
}

func frame(cmd string) []byte {
	buf := make([]byte, 4+len(cmd))
	binary.NativeEndian.PutUint32(buf, uint32(len(cmd)))
	copy(buf[4:], cmd)
	return buf
}

func sendStdout(cmd string) int {
	if _, err := os.Stdout.Write(frame(cmd)); err != nil {
		fmt.Fprintln(os.Stderr, "pekwmctl:", err)
		return 1
	}
	return 0
}

func sendSocket(path, cmd string) int {
	conn, err := net.Dial("unix", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pekwmctl:", err)
		return 1
	}
	defer conn.Close()
	if _, err := conn.Write(frame(cmd)); err != nil {
		fmt.Fprintln(os.Stderr, "pekwmctl:", err)
		return 1
	}
	return 0
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: pekwmctl <command> [args]

commands:
  exit
  reload
  theme <path>
  time-of-day <Auto|Toggle|Next|Dawn|Day|Dusk|Night>
  dpi <float>
  mon-load
  mon-save
  xset <name> <string>
  xset-int <name> <int>
  xset-color <name> #RRGGBB[AA]
  xsave

PEKWM_SYS_SOCK, if set, names a control socket to write to instead of
stdout (for piping into pekwm_sys's stdin directly).`)
}
