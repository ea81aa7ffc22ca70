// Command shopchatd runs the conversational chat API: session store, model
// backend, MCP tool bridge, optional semantic retrieval and the SSE chat
// endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/shopchat/shopchat/chat"
	"github.com/shopchat/shopchat/config"
	"github.com/shopchat/shopchat/ecommerce"
	"github.com/shopchat/shopchat/logging"
	"github.com/shopchat/shopchat/model"
	anthropicmodel "github.com/shopchat/shopchat/model/anthropic"
	openaimodel "github.com/shopchat/shopchat/model/openai"
	"github.com/shopchat/shopchat/retrieval"
	"github.com/shopchat/shopchat/retrieval/qdrant"
	"github.com/shopchat/shopchat/server"
	"github.com/shopchat/shopchat/session"
	"github.com/shopchat/shopchat/tool"
	toolmcp "github.com/shopchat/shopchat/tool/mcp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("shopchatd failed", "error", err)
		os.Exit(1)
	}
}

// noTools is the executor used when no MCP tool server is configured.
type noTools struct{}

func (noTools) ListTools(ctx context.Context) ([]model.ToolDefinition, error) { return nil, nil }

func (noTools) CallTool(ctx context.Context, name string, args map[string]any) (*tool.Result, error) {
	return nil, fmt.Errorf("no tool executor configured")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logging.NewDefaultSlogLogger()

	sessions := session.NewStore(func(o *session.Options) {
		o.TTL = cfg.SessionTTL
		o.SweepInterval = cfg.SweepInterval
		o.Logger = logger
	})
	sessions.StartSweeper(ctx)

	backend, err := buildBackend(cfg)
	if err != nil {
		return err
	}

	var exec tool.Executor = noTools{}
	if cfg.MCPCommand != "" {
		mcpExec := toolmcp.NewExecutor(cfg.MCPCommand, func(o *toolmcp.Options) {
			o.Args = cfg.MCPArgs
			o.Logger = logger
		})
		defer mcpExec.Close()
		exec = mcpExec
	}
	bridge := tool.NewBridge(exec, logger)

	var gate *retrieval.Gate
	if cfg.QdrantURL != "" && cfg.OpenAIAPIKey != "" {
		retriever := qdrant.NewRetriever(cfg.QdrantURL, openaimodel.NewEmbedder(cfg.OpenAIAPIKey))
		gate = retrieval.NewGate(retriever, logger, func(o *retrieval.GateOptions) {
			o.Limit = cfg.RetrievalLimit
		})
	}

	orch := chat.NewOrchestrator(sessions, backend, bridge, gate, func(o *chat.Options) {
		o.MaxRounds = cfg.MaxRounds
		o.MaxMessages = cfg.MaxMessages
		o.Logger = logger
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	server.NewChatHandler(sessions, orch, ecommerce.GetProductsBySKU, logger).Register(e)

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server.shutdown", "error", err)
		}
	}()

	logger.Info("shopchatd.start", "port", cfg.ChatPort, "provider", cfg.Provider, "model", cfg.ModelName)
	if err := e.Start(fmt.Sprintf(":%d", cfg.ChatPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func buildBackend(cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			o.Model = anthropicsdk.Model(cfg.ModelName)
			o.Temperature = cfg.Temperature
			o.MaxTokens = int64(cfg.MaxTokens)
		}), nil
	case config.ProviderOpenAI:
		client := openaisdk.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))
		return openaimodel.NewModelFromClient(&client, func(o *openaimodel.Options) {
			o.Model = cfg.ModelName
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = int64(cfg.MaxTokens)
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
