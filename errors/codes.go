package errors

// ErrorCode represents a specific error condition.
// Error codes are string-based for debuggability and log output.
type ErrorCode string

const (
	// Path errors.

	// CodeNotFound indicates the path does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates the target path already exists.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodePermission indicates the caller may not access the path.
	CodePermission ErrorCode = "PERMISSION_DENIED"

	// CodeInvalidInput indicates an argument is malformed or of the wrong kind
	// (e.g. a directory where a file is expected).
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a device configuration is invalid.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeUnsafeOperation indicates a destructive operation was refused by policy,
	// such as recursively removing the file system root or the home directory.
	CodeUnsafeOperation ErrorCode = "UNSAFE_OPERATION"

	// Device errors.

	// CodeNoDevice indicates no device is registered for the path's scheme.
	CodeNoDevice ErrorCode = "NO_DEVICE"

	// CodeNotSupported indicates the device does not implement the operation.
	CodeNotSupported ErrorCode = "NOT_SUPPORTED"

	// CodeIO indicates a read or write failed or transferred fewer bytes than requested.
	CodeIO ErrorCode = "IO_ERROR"

	// CodeNetwork indicates the device could not be reached.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeUnavailable indicates the device is temporarily unavailable.
	CodeUnavailable ErrorCode = "DEVICE_UNAVAILABLE"

	// CodeCanceled indicates the caller's context was canceled.
	CodeCanceled ErrorCode = "CANCELED"

	// CodeExecutionFailed indicates a command run on the device failed.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
