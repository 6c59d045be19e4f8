// Package errors provides the structured errors returned by fspath and its
// device backends.
//
// Every error carries an ErrorCode describing what went wrong on a path
// (not found, permission, unsafe operation, device missing, ...) and a
// classification telling callers whether retrying can help. Errors wrap
// their cause, so errors.Is against io/fs sentinels keeps working:
//
//	data, err := path.ReadContents(ctx)
//	if errors.Is(err, fs.ErrNotExist) {
//	    // create it
//	}
//	if errors.GetCode(err) == errors.CodeNoDevice {
//	    // no backend registered for path.Scheme()
//	}
//
// Backends use FromFS to turn raw io/fs, os and transport errors into coded
// errors, and Wrap/WithContext to attach the path being worked on.
package errors
