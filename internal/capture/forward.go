package capture

import (
	"context"
	"encoding/json"
	"fmt"
)

// Forwarder receives an ImageEvent for every stored image. It is the hook
// towards the notification service.
type Forwarder interface {
	Forward(ctx context.Context, event ImageEvent) error
}

// NopForwarder drops events.
type NopForwarder struct{}

func (NopForwarder) Forward(context.Context, ImageEvent) error { return nil }

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error
}

// PublishForwarder forwards events to a message broker, keyed by camera id.
type PublishForwarder struct {
	publisher Publisher
}

func NewPublishForwarder(p Publisher) *PublishForwarder {
	return &PublishForwarder{publisher: p}
}

func (f *PublishForwarder) Forward(ctx context.Context, event ImageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal image event: %w", err)
	}
	headers := map[string]string{
		"event_id":   event.ID,
		"event_type": "capture.uploaded",
		"source":     event.Source.String(),
	}
	if err := f.publisher.Publish(ctx, []byte(event.CameraID), payload, headers); err != nil {
		return fmt.Errorf("publish image event: %w", err)
	}
	return nil
}
