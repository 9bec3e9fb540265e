package notifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/your-org/camflow/internal/capture"
)

const maxBodyBytes = 1 << 20

// HTTPHandler exposes REST endpoints for the notifier service.
type HTTPHandler struct {
	store  *Store
	logger *zap.Logger
	router chi.Router
}

// NewHTTPHandler constructs the HTTP handler and wires routes.
func NewHTTPHandler(store *Store, logger *zap.Logger) *HTTPHandler {
	h := &HTTPHandler{
		store:  store,
		logger: logger,
	}
	h.buildRouter()
	return h
}

func (h *HTTPHandler) buildRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/", h.handleRoot)
	r.Get("/healthz", h.handleHealth)
	r.Post("/process-event", h.handleProcessEvent)
	r.Post("/send-notification", h.handleSendNotification)
	r.Get("/notifications", h.handleNotifications)
	r.Get("/recent-images", h.handleRecentImages)

	h.router = r
}

// Router exposes the configured chi router.
func (h *HTTPHandler) Router() http.Handler {
	return h.router
}

func (h *HTTPHandler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "camflow-notifier",
		"status":      "running",
		"mcp_enabled": true,
		"endpoints": map[string]string{
			"process_event":     "/process-event",
			"send_notification": "/send-notification",
			"notifications":     "/notifications",
			"recent_images":     "/recent-images",
		},
	})
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *HTTPHandler) handleProcessEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body")
		return
	}
	ts, err := parseTimestamp(req.Timestamp)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	id, err := h.store.ProcessEvent(capture.ImageEvent{
		ID:        req.ID,
		ImageURI:  req.ImageURI,
		CameraID:  req.CameraID,
		Timestamp: ts,
		Source:    req.Source,
		Analysis:  req.Analysis,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("process event failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "process event failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "processed",
		"event_id": id,
	})
}

// eventRequest is capture.ImageEvent with the timestamp left as text, so
// producers that send ISO 8601 without a zone are accepted.
type eventRequest struct {
	ID        string         `json:"id"`
	ImageURI  string         `json:"image_uri"`
	CameraID  string         `json:"camera_id"`
	Timestamp string         `json:"timestamp"`
	Source    capture.Source `json:"source"`
	Analysis  map[string]any `json:"analysis"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts RFC 3339 and zone-less ISO 8601 timestamps. Times
// without a zone are taken as UTC. An empty string yields the zero time,
// which the store rejects as a missing field.
func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised timestamp %q", ErrInvalidEvent, raw)
}

type notificationRequest struct {
	Message  string         `json:"message"`
	Channel  string         `json:"channel"`
	Metadata map[string]any `json:"metadata"`
}

func (h *HTTPHandler) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification body")
		return
	}
	n, err := h.store.SendNotification(req.Message, req.Channel, req.Metadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "sent",
		"notification": n,
	})
}

func (h *HTTPHandler) handleNotifications(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	items, total := h.store.Notifications(limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"total":         total,
		"notifications": items,
	})
}

func (h *HTTPHandler) handleRecentImages(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	items, total := h.store.RecentImages(limit, r.URL.Query().Get("camera_id"))
	writeJSON(w, http.StatusOK, map[string]any{
		"total":  total,
		"images": items,
	})
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultLimit, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return 0, false
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
