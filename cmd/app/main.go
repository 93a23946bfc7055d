package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/perthro/internal"
	"github.com/starford/perthro/internal/anki"
	pkgconfig "github.com/starford/perthro/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(configPath, cfg); err != nil {
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

func runImport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := anki.DefaultOptions(cmd.String("collection"))
	opts.ImportFolder = cfg.Import.Folder
	opts.ExcludeSuspended = !cfg.Import.IncludeSuspended
	opts.IncludeHistory = cfg.Import.IncludeHistory
	opts.Priority = cfg.Import.Priority
	opts.DeckFilter = cfg.Import.DeckFilter

	if v := cmd.String("profile-dir"); v != "" {
		opts.ProfileDir = v
	}
	if v := cmd.String("folder"); v != "" {
		opts.ImportFolder = v
	}
	if v := cmd.String("deck"); v != "" {
		opts.DeckFilter = v
	}
	if cmd.IsSet("include-suspended") {
		opts.ExcludeSuspended = !cmd.Bool("include-suspended")
	}
	if cmd.IsSet("include-history") {
		opts.IncludeHistory = cmd.Bool("include-history")
	}
	if cmd.IsSet("priority") {
		opts.Priority = cmd.Float("priority")
	}

	if err := internal.RunImport(ctx, opts, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("import error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("mcp run error: %w", err)
	}

	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "perthro",
		Usage:  "Incremental reading over a Markdown vault with Anki collection import",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP server and sidecar watcher",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:      "import",
				Usage:     "Import an Anki collection into the vault",
				Action:    runImport,
				ArgsUsage: "--collection path/to/collection.anki2",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "collection",
						Usage:    "Path to the collection database (collection.anki2)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "profile-dir",
						Usage: "Anki profile directory holding collection.media (defaults to the collection's directory)",
					},
					&cli.StringFlag{
						Name:  "folder",
						Usage: "Vault folder to place imported notes under",
					},
					&cli.StringFlag{
						Name:  "deck",
						Usage: "Import only the named deck and its subdecks",
					},
					&cli.BoolFlag{
						Name:  "include-suspended",
						Usage: "Import suspended cards too",
					},
					&cli.BoolFlag{
						Name:  "include-history",
						Usage: "Translate the review log into revlog files",
					},
					&cli.FloatFlag{
						Name:  "priority",
						Usage: "Priority assigned to imported items (0-100)",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP stdio interface",
				Action: serveMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
