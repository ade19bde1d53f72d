package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alexschlessinger/saintsal/agent"
	"github.com/alexschlessinger/saintsal/bag"
	"github.com/alexschlessinger/saintsal/capabilities"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// ChatArgs are the arguments of the chat tool
type ChatArgs struct {
	Message               string         `json:"message" jsonschema:"the user message"`
	SessionID             string         `json:"sessionId,omitempty" jsonschema:"session to continue; a new one is created when absent or unknown"`
	UserID                string         `json:"userId,omitempty" jsonschema:"owning user for a new session"`
	Context               map[string]any `json:"context,omitempty" jsonschema:"context keys merged into the session before the turn"`
	RequestedCapabilities []string       `json:"requestedCapabilities,omitempty" jsonschema:"restrict the turn to these capability names"`
}

// SessionArgs identify a session
type SessionArgs struct {
	SessionID string `json:"sessionId" jsonschema:"the session id"`
}

// CapabilityUpdate is one partial capability change
type CapabilityUpdate struct {
	Name        string         `json:"name" jsonschema:"capability name"`
	Enabled     *bool          `json:"enabled,omitempty"`
	Description *string        `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// UpdateCapabilitiesArgs are the arguments of the update_capabilities tool
type UpdateCapabilitiesArgs struct {
	SessionID    string             `json:"sessionId" jsonschema:"the session id"`
	Capabilities []CapabilityUpdate `json:"capabilities" jsonschema:"partial updates applied by name"`
}

// NewMCPServer exposes the agent as MCP tools
func NewMCPServer(a *agent.Agent) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "saintsal",
		Version: agent.Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat",
		Description: "Send a message to the assistant and get its reply. Reuse the returned sessionId to continue the conversation.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args ChatArgs) (*mcp.CallToolResult, any, error) {
		req := agent.TurnRequest{
			Message:               args.Message,
			SessionID:             args.SessionID,
			UserID:                args.UserID,
			RequestedCapabilities: args.RequestedCapabilities,
		}
		if args.Context != nil {
			req.Context = bag.FromMap(args.Context)
		}
		if err := req.Validate(); err != nil {
			return toolError(err), nil, nil
		}
		return jsonResult(a.Process(ctx, req))
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_info",
		Description: "Return the capabilities and conversation summary of a session.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args SessionArgs) (*mcp.CallToolResult, any, error) {
		info, err := a.GetSession(args.SessionID)
		if err != nil {
			return toolError(err), nil, nil
		}
		return jsonResult(info)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_capabilities",
		Description: "Enable, disable or reconfigure capabilities of a session by name.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args UpdateCapabilitiesArgs) (*mcp.CallToolResult, any, error) {
		updates := make([]capabilities.Update, 0, len(args.Capabilities))
		for _, u := range args.Capabilities {
			update := capabilities.Update{
				Name:        u.Name,
				Enabled:     u.Enabled,
				Description: u.Description,
			}
			if u.Parameters != nil {
				update.Parameters = bag.FromMap(u.Parameters)
			}
			updates = append(updates, update)
		}
		if !a.UpdateCapabilities(args.SessionID, updates) {
			return toolError(agent.ErrSessionNotFound), nil, nil
		}
		return jsonResult(capabilitiesPatchResponse{
			Success:   true,
			Message:   "Capabilities updated successfully",
			SessionID: args.SessionID,
		})
	})

	return server
}

// ServeMCP runs the MCP server over stdio until ctx ends or the client
// disconnects
func ServeMCP(ctx context.Context, a *agent.Agent) error {
	zap.S().Debugw("mcp_serving", "transport", "stdio")
	err := NewMCPServer(a).Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
