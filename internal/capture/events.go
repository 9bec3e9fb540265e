package capture

import "time"

// ImageEvent is emitted downstream once an image is stored.
type ImageEvent struct {
	ID        string         `json:"id"`
	ImageURI  string         `json:"image_uri"`
	CameraID  string         `json:"camera_id"`
	Timestamp time.Time      `json:"timestamp"`
	Source    Source         `json:"source"`
	Analysis  map[string]any `json:"analysis,omitempty"`
}
