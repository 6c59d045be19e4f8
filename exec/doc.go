// Package exec runs local commands behind a small, mockable interface.
//
// Device backends that drive a CLI (for example the docker device, which
// reaches into containers with "docker exec") take an Executor so that their
// tests can replace process execution with a fake.
//
// # Basic Usage
//
//	cmd := exec.New(exec.WithTimeout(30 * time.Second))
//	result, err := cmd.Run(ctx, "uname", "-s")
//	if err != nil {
//		return err
//	}
//	fmt.Println(result.StdoutString())
//
// # Configuration
//
// Options passed to New apply to every run. The With* methods apply to the
// next run only and override the options:
//
//	result, err := cmd.
//		WithDir("/srv").
//		WithStdin(bytes.NewReader(data)).
//		Run(ctx, "tee", "out.bin")
//
// # Command Wrappers
//
// A wrapper prepends a program and fixed arguments:
//
//	container := exec.NewWrapper(exec.New(), "docker", "exec", "-i", "web")
//	result, err := container.Run(ctx, "cat", "/etc/hostname")
//	// Equivalent to: docker exec -i web cat /etc/hostname
//
// # Errors
//
// A command that cannot start, or exits non-zero, returns *ExecError carrying
// the exit code and captured stderr. The Result is still returned when the
// process ran.
package exec
