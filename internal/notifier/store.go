package notifier

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/camflow/internal/capture"
)

const (
	// DefaultLimit applies when a query asks for zero or fewer items.
	DefaultLimit   = 10
	DefaultChannel = "console"
)

var (
	ErrMessageRequired = errors.New("message is required")
	ErrInvalidEvent    = errors.New("invalid image event")
)

// Notification is one entry of the notification history.
type Notification struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
	Channel   string         `json:"channel"`
	Metadata  map[string]any `json:"metadata"`
}

// CameraStatus summarises the recent images of one camera.
type CameraStatus struct {
	CameraID    string    `json:"camera_id"`
	LastImage   time.Time `json:"last_image"`
	TotalImages int       `json:"total_images"`
	Alerts      int       `json:"alerts"`
}

// Store keeps recent image events and the notification history in memory.
// Both logs are bounded; the oldest entries are dropped first.
type Store struct {
	mu               sync.RWMutex
	images           []capture.ImageEvent
	notifications    []Notification
	maxImages        int
	maxNotifications int
	logger           *zap.Logger
	now              func() time.Time
}

type StoreParams struct {
	MaxImages        int
	MaxNotifications int
	Logger           *zap.Logger
	Now              func() time.Time
}

func NewStore(p StoreParams) *Store {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		maxImages:        max(p.MaxImages, 1),
		maxNotifications: max(p.MaxNotifications, 1),
		logger:           logger,
		now:              now,
	}
}

// ProcessEvent records an image event and raises a console notification when
// its analysis flags an alert. It returns the event id.
func (s *Store) ProcessEvent(ev capture.ImageEvent) (string, error) {
	if ev.ImageURI == "" || ev.CameraID == "" || ev.Timestamp.IsZero() {
		return "", fmt.Errorf("%w: image_uri, camera_id and timestamp are required", ErrInvalidEvent)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	s.logger.Info("processing event", zap.String("camera_id", ev.CameraID), zap.Time("timestamp", ev.Timestamp))

	s.mu.Lock()
	s.images = appendBounded(s.images, ev, s.maxImages)
	s.mu.Unlock()

	if isAlert(ev) {
		description, _ := ev.Analysis["description"].(string)
		if description == "" {
			description = "Evento detectado"
		}
		s.notify(fmt.Sprintf("Alerta de cámara %s: %s", ev.CameraID, description), DefaultChannel, map[string]any{
			"event_id":  ev.ID,
			"image_uri": ev.ImageURI,
			"camera_id": ev.CameraID,
		})
	}
	return ev.ID, nil
}

// SendNotification records a manual notification. An empty channel means
// the console.
func (s *Store) SendNotification(message, channel string, metadata map[string]any) (Notification, error) {
	if message == "" {
		return Notification{}, ErrMessageRequired
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return s.notify(message, channel, metadata), nil
}

func (s *Store) notify(message, channel string, metadata map[string]any) Notification {
	if metadata == nil {
		metadata = map[string]any{}
	}
	n := Notification{
		ID:        uuid.NewString(),
		Timestamp: s.now().UTC(),
		Message:   message,
		Channel:   channel,
		Metadata:  metadata,
	}
	s.mu.Lock()
	s.notifications = appendBounded(s.notifications, n, s.maxNotifications)
	s.mu.Unlock()

	s.logger.Info("notification sent", zap.String("channel", channel), zap.String("message", message))
	return n
}

// Notifications returns the newest limit notifications, oldest first, and the
// total number held.
func (s *Store) Notifications(limit int) ([]Notification, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tail(s.notifications, limit), len(s.notifications)
}

// RecentImages returns the newest limit events, oldest first. A non-empty
// cameraID filters that window, so fewer than limit may come back.
func (s *Store) RecentImages(limit int, cameraID string) ([]capture.ImageEvent, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	window := tail(s.images, limit)
	if cameraID == "" {
		return window, len(s.images)
	}
	filtered := make([]capture.ImageEvent, 0, len(window))
	for _, ev := range window {
		if ev.CameraID == cameraID {
			filtered = append(filtered, ev)
		}
	}
	return filtered, len(filtered)
}

// AllImages returns every held event, oldest first.
func (s *Store) AllImages() []capture.ImageEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]capture.ImageEvent(nil), s.images...)
}

// AllNotifications returns the full history, oldest first.
func (s *Store) AllNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Notification(nil), s.notifications...)
}

// CameraStatus aggregates the held events per camera, in order of first
// appearance.
func (s *Store) CameraStatus() []CameraStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := map[string]int{}
	var out []CameraStatus
	for _, ev := range s.images {
		i, ok := index[ev.CameraID]
		if !ok {
			i = len(out)
			index[ev.CameraID] = i
			out = append(out, CameraStatus{CameraID: ev.CameraID})
		}
		st := &out[i]
		st.LastImage = ev.Timestamp
		st.TotalImages++
		if isAlert(ev) {
			st.Alerts++
		}
	}
	return out
}

func isAlert(ev capture.ImageEvent) bool {
	alert, _ := ev.Analysis["alert"].(bool)
	return alert
}

func appendBounded[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if over := len(s) - limit; over > 0 {
		s = append(s[:0:0], s[over:]...)
	}
	return s
}

func tail[T any](s []T, limit int) []T {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > len(s) {
		limit = len(s)
	}
	return append([]T(nil), s[len(s)-limit:]...)
}
