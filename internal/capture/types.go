package capture

import (
	"fmt"
	"time"
)

// Source identifies the front-end that produced a capture.
type Source int

const (
	SourcePoll Source = iota
	SourceFileWatch
)

func (s Source) String() string {
	switch s {
	case SourcePoll:
		return "poll"
	case SourceFileWatch:
		return "file_watch"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// MarshalText lets Source appear as a string in JSON events.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(b []byte) error {
	switch string(b) {
	case "poll":
		*s = SourcePoll
	case "file_watch":
		*s = SourceFileWatch
	default:
		return fmt.Errorf("unknown capture source %q", b)
	}
	return nil
}

// Event is one candidate image awaiting upload. Exactly one of Data (poll)
// or Path (file watch) is set.
type Event struct {
	Source   Source
	CameraID string
	Data     []byte
	Path     string
	// DetectedAt is the acquisition time for polled snapshots and the
	// post-settle time for watched files. It is the timestamp in the key.
	DetectedAt time.Time
	// OriginalFilename is set only for file watch captures.
	OriginalFilename string
}

// NewSnapshotEvent builds a poll capture from fetched bytes.
func NewSnapshotEvent(cameraID string, data []byte, at time.Time) Event {
	return Event{Source: SourcePoll, CameraID: cameraID, Data: data, DetectedAt: at}
}

// NewFileEvent builds a file watch capture for a local path.
func NewFileEvent(cameraID, path, filename string, at time.Time) Event {
	return Event{Source: SourceFileWatch, CameraID: cameraID, Path: path, OriginalFilename: filename, DetectedAt: at}
}

// Key returns the remote object key for the event.
func (e Event) Key() string {
	if e.Source == SourcePoll {
		return SnapshotKey(e.CameraID, e.DetectedAt)
	}
	return BuildKey(e.CameraID, e.DetectedAt, e.OriginalFilename)
}
