package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexschlessinger/saintsal/agent"
	"github.com/urfave/cli/v3"
)

func main() {
	app := &cli.Command{
		Name:    "saintsal",
		Usage:   "Capability-aware conversational assistant",
		Version: agent.Version,
		Flags:   defineFlags(),
		Commands: []*cli.Command{
			serveCommand(),
			chatCommand(),
			mcpCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to YAML configuration file",
			Sources: cli.EnvVars("SAINTSAL_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "Model to use (provider/model format)",
		},
		&cli.Float64Flag{
			Name:  "temp",
			Usage: "Temperature for sampling",
		},
		&cli.IntFlag{
			Name:  "maxtokens",
			Usage: "Maximum tokens to generate",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-attempt completion timeout",
		},
		&cli.StringFlag{
			Name:  "baseurl",
			Usage: "Base URL for the selected provider (OpenAI-compatible endpoints, Azure resource, Ollama)",
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "Log mode: silent, debug or json",
		},
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Enable debug logging (same as --log debug)",
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "Session snapshot file restored on start and saved on schedule and shutdown",
			},
		},
		Action: runServe,
	}
}

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to the assistant from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "prompt",
				Aliases: []string{"p"},
				Usage:   "Send a single message and exit (reads stdin when piped)",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "User id for the session",
			},
			&cli.StringSliceFlag{
				Name:  "capability",
				Usage: "Restrict turns to this capability (can be specified multiple times)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress banners and status updates",
			},
		},
		Action: runChat,
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:   "mcp",
		Usage:  "Serve the assistant as MCP tools over stdio",
		Action: runMCP,
	}
}
