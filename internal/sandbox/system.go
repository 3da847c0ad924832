package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"go.uber.org/zap"

	"github.com/localapp/appbridge_go/pkg/appctl"
)

// ErrCommandsDisabled is returned for command calls unless the control was
// built with commands allowed.
var ErrCommandsDisabled = errors.New("commands are disabled on this server")

// SystemControl is the appctl backend of a running sandbox. Exit closes
// Done; commands start detached processes on the host.
type SystemControl struct {
	allowCommands bool
	logger        *zap.Logger

	once sync.Once
	done chan struct{}
}

var _ appctl.Backend = (*SystemControl)(nil)

func NewSystemControl(allowCommands bool, logger *zap.Logger) *SystemControl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SystemControl{
		allowCommands: allowCommands,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

// Done is closed once an exit was requested.
func (s *SystemControl) Done() <-chan struct{} { return s.done }

func (s *SystemControl) Exit(ctx context.Context) error {
	s.once.Do(func() {
		s.logger.Info("exit requested")
		close(s.done)
	})
	return nil
}

// Command starts args[0] with the remaining args and does not wait for it.
func (s *SystemControl) Command(ctx context.Context, args []any) error {
	if !s.allowCommands {
		return ErrCommandsDisabled
	}
	if len(args) == 0 {
		return errors.New("empty command")
	}
	argv := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			argv[i] = v
		case float64, bool:
			argv[i] = fmt.Sprint(v)
		default:
			return fmt.Errorf("command argument %d has unsupported type %T", i, a)
		}
	}

	// not bound to ctx: the process outlives the request
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	s.logger.Info("command started", zap.Strings("argv", argv), zap.Int("pid", cmd.Process.Pid))
	go func() {
		if err := cmd.Wait(); err != nil {
			s.logger.Debug("command exited", zap.Strings("argv", argv), zap.Error(err))
		}
	}()
	return nil
}
