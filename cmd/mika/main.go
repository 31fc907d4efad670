package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fermoza/mika-go/internal/mika/api"
	"github.com/fermoza/mika-go/internal/mika/config"
	"github.com/fermoza/mika-go/internal/mika/llm"
	logx "github.com/fermoza/mika-go/internal/mika/log"
	"github.com/fermoza/mika-go/internal/mika/stylist"
	"github.com/fermoza/mika-go/internal/mika/types"
	"github.com/fermoza/mika-go/internal/mika/usage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "mika",
		Short:        "Mika stylist API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
	root.AddCommand(newServeCmd(), newPromptCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func newPromptCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the prompt composed for a chat payload without calling the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrompt(cmd.OutOrStdout(), cmd.InOrStdin(), file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "chat payload JSON file, - for stdin")
	return cmd
}

func runServe() error {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger, err := logx.NewLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	logger.Info(ctx, "Starting Mika service",
		logx.KV("name", cfg.App.Name),
		logx.KV("version", cfg.App.Version),
		logx.KV("environment", cfg.App.Environment),
		logx.KV("openai_api_key", cfg.OpenAI.MaskedAPIKey()),
		logx.KV("model", cfg.OpenAI.Model),
		logx.KV("usage_store", cfg.Usage.Store))
	if cfg.OpenAI.APIKey == "" {
		logger.Warn(ctx, "OPENAI_API_KEY is empty; chat requests will fail")
	}

	recorder, err := usage.New(cfg.Usage)
	if err != nil {
		logger.Error(ctx, "Failed to initialize usage store", logx.KV("error", err))
		return err
	}
	if rs, ok := recorder.(*usage.RedisStore); ok {
		defer rs.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rs.Ping(pingCtx); err != nil {
			logger.Warn(ctx, "Redis usage store unreachable, counters will be lost", logx.KV("error", err))
		}
		cancel()
	}

	client := llm.NewOpenAIClient(cfg.OpenAI, logger)
	svc := stylist.NewService(client, stylist.PersonaFromConfig(cfg.Stylist), recorder, logger)
	server := api.NewServer(cfg, logger, svc)

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error(ctx, "Failed to start server", logx.KV("error", err))
		}
		return err
	case sig := <-quit:
		logger.Info(ctx, "Shutting down Mika service", logx.KV("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down API server", logx.KV("error", err))
		return err
	}

	logger.Info(shutdownCtx, "Mika service stopped")
	return nil
}

func runPrompt(out io.Writer, in io.Reader, file string) error {
	var (
		data []byte
		err  error
	)
	if file == "" || file == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	req, err := types.DecodeChatRequest(data)
	if err != nil {
		return err
	}

	cfg := config.Load()
	composer := stylist.NewComposer(stylist.PersonaFromConfig(cfg.Stylist))
	_, err = fmt.Fprintf(out, "SYSTEM:\n%s\n\n%s\n", composer.SystemInstruction(), composer.Compose(req))
	return err
}
