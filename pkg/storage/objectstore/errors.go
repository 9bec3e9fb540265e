package objectstore

import (
	"errors"

	"github.com/minio/minio-go/v7"
	"gocloud.dev/gcerrors"
)

// ErrPermanent marks sink failures that will not succeed on a later attempt
// without operator action (bad credentials, missing bucket, rejected key).
var ErrPermanent = errors.New("permanent object store failure")

// IsPermanent reports whether err was classified as permanent.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }

func (p *permanentError) Unwrap() []error { return []error{p.err, ErrPermanent} }

func permanent(err error) error {
	return &permanentError{err: err}
}

func classifyMinio(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "AccessDenied", "NoSuchBucket", "InvalidBucketName", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return permanent(err)
	}
	return err
}

func classifyBlob(err error) error {
	switch gcerrors.Code(err) {
	case gcerrors.PermissionDenied, gcerrors.NotFound, gcerrors.InvalidArgument, gcerrors.FailedPrecondition:
		return permanent(err)
	}
	return err
}
