package s3

import (
	"fmt"
	"io/fs"

	"github.com/minio/minio-go/v7"

	"github.com/jmgilman/go/fspath"
	"github.com/jmgilman/go/fspath/errors"
)

// translate converts a client error into a coded error for op on p.
func translate(err error, op string, p fspath.FilePath) error {
	if err == nil {
		return nil
	}
	msg := op + " failed"

	var coded errors.Error
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		coded = errors.Wrap(fmt.Errorf("%w: %w", fs.ErrNotExist, err), errors.CodeNotFound, msg)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		coded = errors.Wrap(err, errors.CodePermission, msg)
	case "SlowDown", "ServiceUnavailable", "RequestTimeout":
		coded = errors.Wrap(err, errors.CodeUnavailable, msg)
	default:
		coded = errors.FromFS(err, msg)
	}
	return errors.WithContext(coded, "path", p.String())
}
