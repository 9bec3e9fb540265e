package capture

import (
	"fmt"
	"time"
)

// BuildKey maps a capture to its remote object key:
//
//	raw/{cameraID}/{YYYY}/{MM}/{DD}/{epochMillis}[_{originalFilename}]
//
// Date components are taken in UTC. The filename suffix is added only when
// originalFilename is non-empty.
func BuildKey(cameraID string, ts time.Time, originalFilename string) string {
	utc := ts.UTC()
	key := fmt.Sprintf("raw/%s/%04d/%02d/%02d/%d", cameraID, utc.Year(), int(utc.Month()), utc.Day(), utc.UnixMilli())
	if originalFilename != "" {
		key += "_" + originalFilename
	}
	return key
}

// SnapshotKey is the key used for polled snapshots, which have no local
// filename: the bare millisecond timestamp with a .jpg extension.
func SnapshotKey(cameraID string, ts time.Time) string {
	return BuildKey(cameraID, ts, "") + ".jpg"
}
