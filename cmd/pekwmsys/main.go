// Command pekwm_sys runs the pekwm system reactor: time-of-day
// transitions, XSETTINGS serving, and monitor layout persistence.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"

	"github.com/pekwm/pekwm-sys/internal/pekwmlog"
	"github.com/pekwm/pekwm-sys/internal/reactor"
	"github.com/pekwm/pekwm-sys/internal/servicewrap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("pekwm_sys", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", defaultConfigPath(), "configuration file")
	display := flags.StringP("display", "d", "", "X display (defaults to $DISPLAY)")
	logFile := flags.StringP("log-file", "f", "", "log file (defaults to stderr)")
	logLevel := flags.StringP("log-level", "l", "info", "log level: trace, debug, info, warn, error")
	theme := flags.StringP("theme", "t", "", "theme config to load at startup")
	interactive := flags.BoolP("interactive", "i", false, "run in the foreground instead of as a service")
	help := flags.BoolP("help", "h", false, "show usage")

	action := ""
	if len(args) > 0 && !isFlag(args[0]) {
		action, args = args[0], args[1:]
	}
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if *help {
		fmt.Fprintln(os.Stderr, flags.FlagUsages())
		return 0
	}

	level, err := pekwmlog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	svcCfg := servicewrap.Config{Arguments: args}
	switch action {
	case "install":
		return serviceAction(servicewrap.Install, svcCfg)
	case "uninstall":
		return serviceAction(servicewrap.Uninstall, svcCfg)
	case "start":
		return serviceAction(servicewrap.Start, svcCfg)
	case "stop":
		return serviceAction(servicewrap.Stop, svcCfg)
	case "restart":
		return serviceAction(servicewrap.Restart, svcCfg)
	case "status":
		status, err := servicewrap.Status(svcCfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(status)
		return 0
	}

	var logOut *os.File = os.Stderr
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer f.Close()
		logOut = f
	}

	r, err := reactor.New(reactor.Config{
		ConfigPath:  *configPath,
		Display:     *display,
		Theme:       *theme,
		LogLevel:    level,
		Output:      logOut,
		Interactive: *interactive,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *interactive {
		if err := r.Run(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	if err := servicewrap.RunAsService(r, servicewrap.Config{}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func serviceAction(action func(servicewrap.Config) error, cfg servicewrap.Config) int {
	if err := action(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func isFlag(arg string) bool {
	return len(arg) > 0 && arg[0] == '-'
}

// defaultConfigPath follows pekwm's own ~/.pekwm/config convention;
// when the home directory can't be resolved (e.g. $HOME unset in a
// stripped-down service environment) it falls back to the XDG config
// directory, matching the teacher's own xdg.ConfigFile-based fallback
// for locating its service's per-user files.
func defaultConfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".pekwm", "config")
	}
	if path, err := xdg.ConfigFile(filepath.Join("pekwm_sys", "config")); err == nil {
		return path
	}
	return ""
}
