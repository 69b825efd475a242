// Command chatgpt sends a prompt to the chatgpt.es endpoint and prints the
// reply, streaming fragments to stdout as they arrive.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/sujalrajpoot/chatgpt-go/config"
	"github.com/sujalrajpoot/chatgpt-go/core/chat"
	"github.com/sujalrajpoot/chatgpt-go/core/client"
	"github.com/sujalrajpoot/chatgpt-go/core/client/middleware"
	"github.com/sujalrajpoot/chatgpt-go/internal/version"
	"github.com/sujalrajpoot/chatgpt-go/providers/chatgptes"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Exit codes by failure kind, so scripts can tell a blocked request
		// from a flaky network.
		switch {
		case errors.Is(err, chat.ErrAuthentication):
			os.Exit(3)
		case errors.Is(err, chat.ErrParse):
			os.Exit(4)
		case errors.Is(err, chat.ErrConnection):
			os.Exit(5)
		default:
			os.Exit(1)
		}
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		modelName  string
		timeout    time.Duration
		chunkSize  int
		markdown   bool
		noStream   bool
		verbose    bool
		showVer    bool
	)

	cmd := &cobra.Command{
		Use:   "chatgpt [prompt]",
		Short: "Chat with the chatgpt.es endpoint from the terminal",
		Long: "chatgpt sends a prompt through a browser-fingerprinted session to the\n" +
			"unofficial chatgpt.es endpoint and streams the reply to stdout.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVer {
				fmt.Println(version.Info())
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("a prompt is required")
			}

			// .env is optional; real env vars win either way.
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Flags set explicitly override file and environment.
			if cmd.Flags().Changed("model") {
				cfg.Model = modelName
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = timeout
			}
			if cmd.Flags().Changed("chunk-size") {
				cfg.ChunkSize = chunkSize
			}
			if cmd.Flags().Changed("markdown") {
				cfg.Markdown = markdown
			}
			if verbose {
				cfg.LogLevel = "debug"
			}

			logger := newLogger(cfg.LogLevel)
			slog.SetDefault(logger)

			return runChat(cmd, cfg, strings.Join(args, " "), logger, !noStream, verbose)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().StringVarP(&modelName, "model", "m", "gpt-4o", "model to use (gpt-4o, gpt-4o-mini, chatgpt-4o-latest)")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "network timeout")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 1000, "streamed read size in bytes")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "convert HTML markup in replies to Markdown")
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "print the reply only once it is complete")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().BoolVar(&showVer, "version", false, "print version information")

	return cmd
}

func runChat(cmd *cobra.Command, cfg config.Config, prompt string, logger *slog.Logger, streamOut, verbose bool) error {
	model, err := chat.ParseModel(cfg.Model)
	if err != nil {
		return err
	}

	providerOpts := []chatgptes.Option{
		chatgptes.WithBaseURL(cfg.BaseURL),
		chatgptes.WithTimeout(cfg.Timeout),
		chatgptes.WithChunkSize(cfg.ChunkSize),
		chatgptes.WithLogger(logger),
	}
	if cfg.Markdown {
		providerOpts = append(providerOpts, chatgptes.WithMarkdownReplies())
	}

	provider, err := chatgptes.New(providerOpts...)
	if err != nil {
		return err
	}

	logLevel := middleware.LogLevelMinimal
	if verbose {
		logLevel = middleware.LogLevelStandard
	}

	conversation, err := client.New(provider,
		client.WithModel(model),
		client.WithMiddleware(
			middleware.NewLoggingMiddleware(logger, logLevel),
			middleware.NewTimeoutMiddleware(cfg.Timeout),
		),
	)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if !streamOut {
		reply, err := conversation.SendMessage(ctx, prompt)
		if err != nil {
			return err
		}
		fmt.Println(reply.Text)
		return nil
	}

	stream, err := conversation.StreamMessage(ctx, prompt)
	if err != nil {
		return err
	}

	for event, err := range stream.Iter() {
		if err != nil {
			fmt.Println()
			return err
		}
		if event.Type == chat.StreamEventFragment {
			fmt.Print(event.Text)
		}
	}
	fmt.Println()
	return nil
}

// newLogger builds a tint-backed slog logger writing to stderr, keeping
// stdout clean for the reply itself.
func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.TimeOnly,
	}))
}
