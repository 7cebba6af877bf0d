package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/starford/mdview/internal"
	"github.com/starford/mdview/internal/clipboard"
	"github.com/starford/mdview/internal/docservice"
	"github.com/starford/mdview/internal/mcpserver"
	"github.com/starford/mdview/internal/models"
	"github.com/starford/mdview/internal/render"
	pkgconfig "github.com/starford/mdview/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// offline builds the document service for the one-shot subcommands, which
// log to stderr so stdout carries only their output.
func offline(cmd *cli.Command) (*internal.Config, *docservice.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := internal.NewLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)
	docs, err := internal.NewDocService(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, docs, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func list(ctx context.Context, cmd *cli.Command) error {
	_, docs, err := offline(cmd)
	if err != nil {
		return err
	}
	for _, name := range models.Names(docs.ListFiles(ctx)) {
		fmt.Fprintln(cmd.Root().Writer, name)
	}
	return nil
}

func fileArg(cmd *cli.Command) (string, error) {
	name := cmd.Args().First()
	if name == "" {
		return "", fmt.Errorf("%s: file argument is required", cmd.Name)
	}
	return name, nil
}

func renderFile(ctx context.Context, cmd *cli.Command) error {
	name, err := fileArg(cmd)
	if err != nil {
		return err
	}
	cfg, docs, err := offline(cmd)
	if err != nil {
		return err
	}
	if cmd.Bool("terminal") {
		data, err := docs.ReadFile(ctx, name)
		if err != nil {
			return err
		}
		out, err := render.Terminal(data, cfg.Render.TerminalStyle, cfg.Render.TerminalWidth)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.Root().Writer, out)
		return nil
	}
	doc, err := docs.GetDocument(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.Root().Writer, doc.HTML)
	return nil
}

func blocks(ctx context.Context, cmd *cli.Command) error {
	name, err := fileArg(cmd)
	if err != nil {
		return err
	}
	_, docs, err := offline(cmd)
	if err != nil {
		return err
	}
	doc, err := docs.GetDocument(ctx, name)
	if err != nil {
		return err
	}
	for i, b := range doc.Blocks {
		first, _, _ := strings.Cut(b.Code, "\n")
		fmt.Fprintf(cmd.Root().Writer, "%d\t%d\t%s\t%s\n", i+1, b.ID, b.Language, first)
	}
	return nil
}

func copyBlock(ctx context.Context, cmd *cli.Command) error {
	name, err := fileArg(cmd)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(cmd.Args().Get(1))
	if err != nil {
		return fmt.Errorf("copy: block number: %w", err)
	}
	_, docs, err := offline(cmd)
	if err != nil {
		return err
	}
	res, err := mcpserver.CopyBlock(ctx, docs, clipboard.Host{}, name, n)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.Root().Writer, res.State.Label())
	return res.ClipboardErr
}

func serveMCP(_ context.Context, cmd *cli.Command) error {
	cfg, docs, err := offline(cmd)
	if err != nil {
		return err
	}
	srv := mcpserver.New(docs, clipboard.Host{}, mcpserver.TerminalOptions{
		Style: cfg.Render.TerminalStyle,
		Width: cfg.Render.TerminalWidth,
	})
	return srv.ServeStdio()
}
