package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/camflow/internal/capture"
)

func newTestServer(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()
	store := NewStore(StoreParams{MaxImages: 100, MaxNotifications: 100})
	srv := httptest.NewServer(NewHTTPHandler(store, zap.NewNop()).Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHTTPRootAndHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "running", decode(t, resp)["status"])

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, "ok", decode(t, resp)["status"])
}

func TestHTTPProcessEvent(t *testing.T) {
	srv, store := newTestServer(t)

	body := `{"image_uri":"gs://b/raw/cam/1.jpg","camera_id":"cam","timestamp":"2024-01-02T03:04:05Z","analysis":{"alert":true,"description":"movimiento"}}`
	resp, err := http.Post(srv.URL+"/process-event", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, "processed", out["status"])
	assert.NotEmpty(t, out["event_id"])

	images, _ := store.RecentImages(10, "")
	require.Len(t, images, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), images[0].Timestamp)

	resp, err = http.Get(srv.URL + "/notifications?limit=5")
	require.NoError(t, err)
	out = decode(t, resp)
	assert.EqualValues(t, 1, out["total"])
}

func TestHTTPProcessEventTimestampFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"zone-less iso with micros", "2024-08-09T10:11:12.123456", time.Date(2024, 8, 9, 10, 11, 12, 123456000, time.UTC)},
		{"zone-less iso", "2024-08-09T10:11:12", time.Date(2024, 8, 9, 10, 11, 12, 0, time.UTC)},
		{"space separated", "2024-08-09 10:11:12", time.Date(2024, 8, 9, 10, 11, 12, 0, time.UTC)},
		{"rfc3339 with offset", "2024-08-09T12:11:12+02:00", time.Date(2024, 8, 9, 10, 11, 12, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store := newTestServer(t)

			body := `{"image_uri":"gs://b/k","camera_id":"c1","timestamp":"` + tt.raw + `","analysis":{"alert":true}}`
			resp, err := http.Post(srv.URL+"/process-event", "application/json", strings.NewReader(body))
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "processed", decode(t, resp)["status"])

			images, _ := store.RecentImages(10, "")
			require.Len(t, images, 1)
			assert.True(t, tt.want.Equal(images[0].Timestamp), images[0].Timestamp)
			_, total := store.Notifications(10)
			assert.Equal(t, 1, total)
		})
	}
}

func TestHTTPProcessEventRejects(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/process-event", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/process-event", "application/json", strings.NewReader(`{"camera_id":"cam"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/process-event", "application/json",
		strings.NewReader(`{"image_uri":"gs://b/k","camera_id":"cam","timestamp":"yesterday"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHTTPSendNotification(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/send-notification", "application/json", strings.NewReader(`{"message":"hola"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, "sent", out["status"])
	n := out["notification"].(map[string]any)
	assert.Equal(t, "console", n["channel"])

	resp, err = http.Post(srv.URL+"/send-notification", "application/json", strings.NewReader(`{"channel":"whatsapp"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPRecentImagesLimit(t *testing.T) {
	srv, store := newTestServer(t)
	for i := 0; i < 3; i++ {
		_, err := store.ProcessEvent(imageEvent("cam", time.Now(), nil))
		require.NoError(t, err)
	}

	resp, err := http.Get(srv.URL + "/recent-images?limit=2")
	require.NoError(t, err)
	out := decode(t, resp)
	assert.EqualValues(t, 3, out["total"])
	assert.Len(t, out["images"], 2)

	resp, err = http.Get(srv.URL + "/recent-images?limit=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClientForwardsToNotifier(t *testing.T) {
	srv, store := newTestServer(t)
	cl := NewClient(srv.URL+"/", time.Second)

	ev := capture.ImageEvent{
		ID:        "evt-1",
		ImageURI:  "gs://b/raw/cam/1_photo.jpg",
		CameraID:  "cam",
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Source:    capture.SourceFileWatch,
	}
	require.NoError(t, cl.Forward(context.Background(), ev))

	images, _ := store.RecentImages(10, "")
	require.Len(t, images, 1)
	assert.Equal(t, ev, images[0])

	err := cl.Forward(context.Background(), capture.ImageEvent{CameraID: "cam"})
	assert.ErrorContains(t, err, "HTTP 422")
}
