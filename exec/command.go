package exec

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	osexec "os/exec"
	"time"
)

// Command is the os/exec backed Executor.
type Command struct {
	config *config
	stdin  io.Reader
	logger *slog.Logger
}

var _ Executor = (*Command)(nil)

// New creates a Command with the given options.
func New(opts ...Option) *Command {
	cmd := &Command{
		config: newConfig(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cmd)
	}
	return cmd
}

func (c *Command) WithEnv(env map[string]string) Executor {
	for k, v := range env {
		c.config.localEnv[k] = v
	}
	return c
}

func (c *Command) WithDir(dir string) Executor {
	c.config.localDir = dir
	return c
}

func (c *Command) WithStdin(r io.Reader) Executor {
	c.stdin = r
	return c
}

func (c *Command) WithTimeout(timeout time.Duration) Executor {
	c.config.localTimeout = &timeout
	return c
}

func (c *Command) WithInheritEnv() Executor {
	v := true
	c.config.localInheritEnv = &v
	return c
}

// Run executes the command. Local settings are cleared afterwards, whether
// or not the command succeeded.
func (c *Command) Run(ctx context.Context, args ...string) (*Result, error) {
	defer func() {
		c.config.resetLocal()
		c.stdin = nil
	}()

	if len(args) == 0 {
		return nil, &ExecError{ExitCode: -1, Err: osexec.ErrNotFound}
	}

	if timeout := c.config.effectiveTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := osexec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = c.config.effectiveDir()
	if c.config.effectiveInheritEnv() {
		cmd.Env = os.Environ()
	}
	for k, v := range c.config.effectiveEnv() {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdin = c.stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}
	c.logger.Debug("ran command",
		"cmd", args[0],
		"args", len(args)-1,
		"exit_code", result.ExitCode,
		"duration", time.Since(start))

	if err != nil {
		return result, &ExecError{
			Command:  args,
			ExitCode: result.ExitCode,
			Stderr:   string(result.Stderr),
			Err:      err,
		}
	}
	return result, nil
}

func (c *Command) Clone() Executor {
	return &Command{
		config: c.config.clone(),
		stdin:  c.stdin,
		logger: c.logger,
	}
}
