package server

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vitormoschetta/go-voice-coach/internal/service"
)

// ChatInput é o argumento da ferramenta MCP "chat"
type ChatInput struct {
	Message string `json:"message" jsonschema:"the user message to answer"`
}

// ChatOutput é o resultado estruturado da ferramenta "chat"
type ChatOutput struct {
	Text string `json:"text" jsonschema:"the assistant reply"`
}

// NewMCPServer expõe o pipeline de texto como ferramenta MCP, com o mesmo
// filtro de crise do endpoint /chat.
func NewMCPServer(p *service.Pipeline) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "voice-coach", Version: "v1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat",
		Description: "Send a text message to the assistant and receive its reply.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ChatInput) (*mcp.CallToolResult, ChatOutput, error) {
		reply, err := p.Chat(ctx, in.Message)
		if err != nil {
			return nil, ChatOutput{}, err
		}
		return nil, ChatOutput{Text: reply}, nil
	})

	return server
}

// NewMCPHandler serve o servidor MCP pelo transporte streamable HTTP.
func NewMCPHandler(p *service.Pipeline) http.Handler {
	server := NewMCPServer(p)
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}
