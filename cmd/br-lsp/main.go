// Command br-lsp is the BR language server's entry point: by default it
// speaks Content-Length-framed JSON-RPC over stdio, or runs a one-shot
// CSV diagnostics pass over a file list with the "check" subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/christopherroyshields/br-lsp/internal/checkmode"
	"github.com/christopherroyshields/br-lsp/internal/config"
	"github.com/christopherroyshields/br-lsp/internal/logging"
	lsp "github.com/christopherroyshields/br-lsp/internal/lspserver"
)

func main() {
	app := &cli.App{
		Name:  "br-lsp",
		Usage: "Language Server Protocol implementation for BR",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log at debug level instead of info",
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "run diagnostics over files or directories and print CSV",
				ArgsUsage: "<files-or-dirs>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to a workspace root whose br-lsp.toml should be honored",
					},
				},
				Action: runCheck,
			},
			{
				Name:   "serve",
				Usage:  "run the LSP server over stdio (the default when no subcommand is given)",
				Action: runServe,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "br-lsp:", err)
		os.Exit(1)
	}
}

func runServe(c *cli.Context) error {
	log, err := logging.New(c.Bool("debug"))
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	server := lsp.NewServer(os.Stdin, os.Stdout, log)
	return server.Run()
}

func runCheck(c *cli.Context) error {
	if c.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: br-lsp check <files-or-dirs>...")
		os.Exit(2)
	}

	cfg := config.DefaultDiagnosticsConfig()
	if root := c.String("config"); root != "" {
		if loaded, err := config.Load(root); err == nil {
			cfg = loaded.Diagnostics
		}
	}

	diags, err := checkmode.CheckPaths(c.Args().Slice(), cfg)
	if err != nil {
		return err
	}
	fmt.Print(checkmode.FormatCSV(diags))

	for _, d := range diags {
		if d.Severity == "error" {
			os.Exit(1)
		}
	}
	return nil
}
