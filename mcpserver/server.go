// Package mcpserver exposes the store's cart and favorites operations as
// MCP tools over stdio. Each tool proxies the e-commerce HTTP API and
// reports failures as error-flagged text content so the calling model can
// relay them.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shopchat/shopchat/logging"
)

// DefaultAPIBaseURL is where the e-commerce mock API listens.
const DefaultAPIBaseURL = "http://localhost:3002"

// Options configures the tool server.
type Options struct {
	APIBaseURL string
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Server is the stdio MCP server for store tools.
type Server struct {
	srv    *mcp.Server
	api    *apiClient
	logger logging.Logger
}

// New constructs the server and registers all tools.
func New(optFns ...func(o *Options)) (*Server, error) {
	opts := Options{
		APIBaseURL: DefaultAPIBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		srv: mcp.NewServer(&mcp.Implementation{
			Name:    "shopchat-tools",
			Version: "1.0.0",
		}, nil),
		api:    &apiClient{baseURL: opts.APIBaseURL, client: opts.HTTPClient},
		logger: opts.Logger,
	}
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	return s, nil
}

// Run serves tool calls until ctx is cancelled or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcpserver.start", "api_base_url", s.api.baseURL)
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

// apiEnvelope mirrors the store API's uniform response shape.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
	StatusCode int `json:"statusCode"`
}

type apiClient struct {
	baseURL string
	client  *http.Client
}

func (c *apiClient) do(ctx context.Context, method, path string, body any) (*apiEnvelope, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call store API: %w", err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode store API response: %w", err)
	}
	return &env, nil
}

func successResult(data json.RawMessage) *mcp.CallToolResult {
	var pretty bytes.Buffer
	text := string(data)
	if err := json.Indent(&pretty, data, "", "  "); err == nil {
		text = pretty.String()
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
		IsError: true,
	}
}

// resultFor maps an API call outcome onto tool content. Transport failures
// and API-level errors both surface as error results, never as protocol
// errors, so the round loop can keep going.
func (s *Server) resultFor(env *apiEnvelope, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		s.logger.Warn("mcpserver.api_unreachable", "error", err)
		return errorResult(fmt.Sprintf("Hata: mağaza API'sine ulaşılamadı (%s)", s.api.baseURL)), nil, nil
	}
	if !env.Success {
		message := "Bilinmeyen hata"
		if env.Error != nil {
			message = env.Error.Message
		}
		return errorResult("Hata: " + message), nil, nil
	}
	return successResult(env.Data), nil, nil
}
