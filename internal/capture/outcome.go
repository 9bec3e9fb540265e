package capture

import (
	"errors"

	"go.uber.org/zap"

	"github.com/your-org/camflow/pkg/storage/objectstore"
)

// ErrPermanent marks failures that retrying the same capture cannot fix.
var ErrPermanent = objectstore.ErrPermanent

// OutcomeKind classifies one upload attempt.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	TransientFailure
	PermanentFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case TransientFailure:
		return "transient_failure"
	case PermanentFailure:
		return "permanent_failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one upload attempt. It lives until it is logged.
type Outcome struct {
	Kind   OutcomeKind
	Key    string
	URI    string
	Reason error
}

// Classify turns an upload error into an Outcome.
func Classify(key string, err error) Outcome {
	switch {
	case err == nil:
		return Outcome{Kind: Success, Key: key}
	case errors.Is(err, ErrPermanent):
		return Outcome{Kind: PermanentFailure, Key: key, Reason: err}
	default:
		return Outcome{Kind: TransientFailure, Key: key, Reason: err}
	}
}

// OK reports whether the upload succeeded.
func (o Outcome) OK() bool {
	return o.Kind == Success
}

// Log writes the single log line for the outcome.
func (o Outcome) Log(logger *zap.Logger, fields ...zap.Field) {
	fields = append(fields, zap.String("key", o.Key), zap.Stringer("outcome", o.Kind))
	switch o.Kind {
	case Success:
		logger.Info("image uploaded", append(fields, zap.String("uri", o.URI))...)
	case PermanentFailure:
		logger.Error("upload failed permanently", append(fields, zap.Error(o.Reason))...)
	default:
		logger.Error("upload failed", append(fields, zap.Error(o.Reason))...)
	}
}
