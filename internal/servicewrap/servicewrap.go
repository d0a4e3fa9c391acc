// Package servicewrap wraps the pekwm_sys reactor as a platform
// service (systemd unit, launchd job, or Windows service) using
// kardianos/service, mirroring the teacher's cmd/service install/
// start/stop/status control surface.
package servicewrap

import (
	"fmt"

	"github.com/kardianos/service"
)

// Runnable is the reactor surface the service wrapper drives: Run
// blocks until the reactor stops on its own or Shutdown is called.
type Runnable interface {
	Run() error
	Shutdown()
}

// Config names the installed service; fields mirror
// service.Config's documented ones directly.
type Config struct {
	Name        string
	DisplayName string
	Description string
	Arguments   []string
}

func (c Config) toServiceConfig() *service.Config {
	name, displayName, description := c.Name, c.DisplayName, c.Description
	if name == "" {
		name = "pekwm_sys"
	}
	if displayName == "" {
		displayName = "pekwm system service"
	}
	if description == "" {
		description = "Drives pekwm's time-of-day, XSETTINGS and monitor configuration."
	}
	return &service.Config{
		Name:        name,
		DisplayName: displayName,
		Description: description,
		Arguments:   c.Arguments,
	}
}

// program adapts a Runnable to kardianos/service's Interface.
type program struct {
	runnable Runnable
	errs     chan<- error
}

func (p program) Start(s service.Service) error {
	go func() { p.errs <- p.runnable.Run() }()
	return nil
}

func (p program) Stop(s service.Service) error {
	p.runnable.Shutdown()
	return nil
}

// RunAsService starts runnable under the OS service manager (when
// launched non-interactively) or directly in the foreground (when
// launched interactively), returning once it stops.
func RunAsService(runnable Runnable, cfg Config) error {
	errs := make(chan error, 1)
	svc, err := service.New(program{runnable: runnable, errs: errs}, cfg.toServiceConfig())
	if err != nil {
		return fmt.Errorf("servicewrap: constructing service: %w", err)
	}
	if service.Interactive() {
		go func() { errs <- runnable.Run() }()
	} else {
		if err := svc.Run(); err != nil {
			return fmt.Errorf("servicewrap: running service: %w", err)
		}
	}
	return <-errs
}

// controller implements service.Interface for control-only actions
// (install/uninstall/start/stop/status): it is never actually run.
type controller struct{}

func (controller) Start(service.Service) error { return fmt.Errorf("servicewrap: control-only service cannot be started directly") }
func (controller) Stop(service.Service) error  { return fmt.Errorf("servicewrap: control-only service cannot be stopped directly") }

func newController(cfg Config) (service.Service, error) {
	return service.New(controller{}, cfg.toServiceConfig())
}

// Install registers the service with the OS service manager.
func Install(cfg Config) error { return control(cfg, "install") }

// Uninstall removes the service registration.
func Uninstall(cfg Config) error { return control(cfg, "uninstall") }

// Start starts the already-installed service.
func Start(cfg Config) error { return control(cfg, "start") }

// Stop stops the running service.
func Stop(cfg Config) error { return control(cfg, "stop") }

// Restart stops then starts the service.
func Restart(cfg Config) error { return control(cfg, "restart") }

func control(cfg Config, action string) error {
	svc, err := newController(cfg)
	if err != nil {
		return fmt.Errorf("servicewrap: constructing service: %w", err)
	}
	if err := service.Control(svc, action); err != nil {
		return fmt.Errorf("servicewrap: %s: %w", action, err)
	}
	return nil
}

// Status reports the service's current run state.
func Status(cfg Config) (service.Status, error) {
	svc, err := newController(cfg)
	if err != nil {
		return service.StatusUnknown, fmt.Errorf("servicewrap: constructing service: %w", err)
	}
	status, err := svc.Status()
	if err != nil {
		return service.StatusUnknown, fmt.Errorf("servicewrap: querying status: %w", err)
	}
	return status, nil
}
