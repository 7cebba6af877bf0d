package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:   "mdview",
		Usage:  "List, view and edit Markdown files with highlighted, copyable code blocks",
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
				Usage:  "Run the HTTP server",
				Action: serve,
			},
			{
				Name:   "list",
				Usage:  "Print the Markdown files of the docs directory",
				Action: list,
			},
			{
				Name:      "render",
				Usage:     "Render a docs file to HTML",
				ArgsUsage: "<file>",
				Action:    renderFile,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "terminal",
						Usage: "Render for the terminal instead of HTML",
					},
				},
			},
			{
				Name:      "blocks",
				Usage:     "Print the code blocks of a docs file",
				ArgsUsage: "<file>",
				Action:    blocks,
			},
			{
				Name:      "copy",
				Usage:     "Copy the n-th code block of a docs file to the clipboard",
				ArgsUsage: "<file> <n>",
				Action:    copyBlock,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}
}
