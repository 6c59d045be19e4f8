package exec

import (
	"context"
	"io"
	"time"
)

// CommandWrapper prepends a fixed program, and optionally fixed leading
// arguments, to every Run. It is how devices address a CLI such as
// "docker exec <container>".
type CommandWrapper struct {
	executor Executor
	prefix   []string
}

var _ Executor = (*CommandWrapper)(nil)

// NewWrapper returns a wrapper running cmd followed by the leading args.
func NewWrapper(executor Executor, cmd string, args ...string) *CommandWrapper {
	return &CommandWrapper{
		executor: executor,
		prefix:   append([]string{cmd}, args...),
	}
}

func (w *CommandWrapper) WithEnv(env map[string]string) Executor {
	w.executor = w.executor.WithEnv(env)
	return w
}

func (w *CommandWrapper) WithDir(dir string) Executor {
	w.executor = w.executor.WithDir(dir)
	return w
}

func (w *CommandWrapper) WithStdin(r io.Reader) Executor {
	w.executor = w.executor.WithStdin(r)
	return w
}

func (w *CommandWrapper) WithTimeout(timeout time.Duration) Executor {
	w.executor = w.executor.WithTimeout(timeout)
	return w
}

func (w *CommandWrapper) WithInheritEnv() Executor {
	w.executor = w.executor.WithInheritEnv()
	return w
}

// Run executes the prefix followed by args.
func (w *CommandWrapper) Run(ctx context.Context, args ...string) (*Result, error) {
	full := make([]string, 0, len(w.prefix)+len(args))
	full = append(full, w.prefix...)
	full = append(full, args...)
	return w.executor.Run(ctx, full...)
}

func (w *CommandWrapper) Clone() Executor {
	return &CommandWrapper{
		executor: w.executor.Clone(),
		prefix:   append([]string(nil), w.prefix...),
	}
}
