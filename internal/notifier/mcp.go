package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	RecentImagesURI        = "foscam://images/recent"
	NotificationHistoryURI = "foscam://notifications/history"
)

type recentImagesArgs struct {
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of images to return, default 10"`
	CameraID string `json:"camera_id,omitempty" jsonschema:"only return images from this camera"`
}

type notificationsArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of notifications to return, default 10"`
}

type sendNotificationArgs struct {
	Message string `json:"message" jsonschema:"notification text"`
	Channel string `json:"channel,omitempty" jsonschema:"notification channel (console, whatsapp), default console"`
}

type cameraStatusArgs struct{}

// NewMCPServer exposes the store as MCP tools and resources for chat
// assistants.
func NewMCPServer(store *Store, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "camflow-notifier", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_recent_images",
		Description: "Get the most recent images captured by the cameras, with their analysis",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args recentImagesArgs) (*mcp.CallToolResult, any, error) {
		images, total := store.RecentImages(args.Limit, args.CameraID)
		return jsonResult(map[string]any{"total": total, "images": images})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_notifications",
		Description: "Get the history of notifications sent by the system",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args notificationsArgs) (*mcp.CallToolResult, any, error) {
		items, total := store.Notifications(args.Limit)
		return jsonResult(map[string]any{"total": total, "notifications": items})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "send_notification",
		Description: "Send a manual notification through the system",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args sendNotificationArgs) (*mcp.CallToolResult, any, error) {
		n, err := store.SendNotification(args.Message, args.Channel, map[string]any{"source": "mcp_tool"})
		if err != nil {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
			}, nil, nil
		}
		return jsonResult(n)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_camera_status",
		Description: "Get the current status of the monitored cameras",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ cameraStatusArgs) (*mcp.CallToolResult, any, error) {
		cameras := store.CameraStatus()
		return jsonResult(map[string]any{"cameras": cameras, "total_cameras": len(cameras)})
	})

	server.AddResource(&mcp.Resource{
		URI:         RecentImagesURI,
		Name:        "recent-images",
		Description: "Recent images captured by the cameras",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		images := store.AllImages()
		return jsonResource(req.Params.URI, map[string]any{"total": len(images), "images": images})
	})

	server.AddResource(&mcp.Resource{
		URI:         NotificationHistoryURI,
		Name:        "notification-history",
		Description: "Full history of sent notifications",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		items := store.AllNotifications()
		return jsonResource(req.Params.URI, map[string]any{"total": len(items), "notifications": items})
	})

	return server
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(b)}}}, nil, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resource %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(b),
	}}}, nil
}
