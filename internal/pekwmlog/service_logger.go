package pekwmlog

import "github.com/kardianos/service"

// ServiceLogger forwards reactor lifecycle events (starting, ready,
// stopping) to the OS service manager's own log, for when pekwm_sys
// runs as an installed service rather than interactively.
type ServiceLogger struct {
	service.Logger
}

// NewServiceLogger builds a ServiceLogger over svc's system logger.
// errs receives asynchronous errors the underlying logger reports.
func NewServiceLogger(svc service.Service, errs chan<- error) (*ServiceLogger, error) {
	sysLog, err := svc.SystemLogger(errs)
	if err != nil {
		return nil, err
	}
	return &ServiceLogger{Logger: sysLog}, nil
}

// Starting reports that the reactor is beginning startup.
func (s *ServiceLogger) Starting() error { return s.Info("pekwm_sys: starting") }

// Ready reports that the reactor has completed startup and entered
// its main loop.
func (s *ServiceLogger) Ready() error { return s.Info("pekwm_sys: ready") }

// Stopping reports that the reactor is shutting down.
func (s *ServiceLogger) Stopping() error { return s.Info("pekwm_sys: stopping") }
