package docker

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
	"github.com/jmgilman/go/fspath/exec"
)

// stderrCodes maps diagnostics printed by coreutils, busybox and the docker
// CLI to error codes. The first match wins.
var stderrCodes = []struct {
	fragment string
	code     errors.ErrorCode
}{
	{"no such container", errors.CodeNotFound},
	{"is not running", errors.CodeUnavailable},
	{"cannot connect to the docker daemon", errors.CodeUnavailable},
	{"no such file", errors.CodeNotFound},
	{"can't open", errors.CodeNotFound},
	{"cannot open", errors.CodeNotFound},
	{"permission denied", errors.CodePermission},
	{"operation not permitted", errors.CodePermission},
	{"read-only file system", errors.CodePermission},
	{"file exists", errors.CodeAlreadyExists},
	{"is a directory", errors.CodeInvalidInput},
	{"not a directory", errors.CodeInvalidInput},
	{"directory not empty", errors.CodeInvalidInput},
}

// translate converts a failed docker exec into a coded error for p.
func translate(ctx context.Context, err error, op string, p fspath.FilePath) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.WithContext(errors.FromFS(ctxErr, op+" canceled"), "path", p.String())
	}

	code := errors.CodeExecutionFailed
	var execErr *exec.ExecError
	if stderrors.As(err, &execErr) {
		if execErr.ExitCode < 0 {
			code = errors.CodeUnavailable
		}
		stderr := strings.ToLower(execErr.Stderr)
		for _, m := range stderrCodes {
			if strings.Contains(stderr, m.fragment) {
				code = m.code
				break
			}
		}
	}
	return errors.WithContext(errors.Wrap(err, code, op+" failed"), "path", p.String())
}
