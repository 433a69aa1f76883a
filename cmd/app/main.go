package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notely/internal"
	"github.com/starford/notely/internal/summarize"
	pkgconfig "github.com/starford/notely/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogger(logger)); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func summarizeStdin(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	text, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	client := summarize.NewClient(cmd.String("gateway"), cfg.Auth.Token, &http.Client{Timeout: cfg.Summarizer.Timeout})
	summary, err := client.Summarize(ctx, strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, summary)
	return err
}

func main() {
	cmd := &cli.Command{
		Name:   "notely",
		Usage:  "Personal notes with AI summaries",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve note tools over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:      "summarize",
				Usage:     "Summarize text read from stdin via the summarization gateway",
				ArgsUsage: "< file.txt",
				Action:    summarizeStdin,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "gateway",
						Usage:   "Base URL of the notely server",
						Value:   "http://localhost:8080",
						Sources: cli.EnvVars("NOTELY_GATEWAY_URL"),
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
