// Command standoff is the CLI for the stand-off annotation store.
// It imports, queries, exports and bundles annotated documents kept in a
// local SQLite database.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/standoff/internal/config"
	"github.com/FocuswithJustin/standoff/internal/docstore"
)

const version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	Config      kong.ConfigFlag `help:"JSON configuration file"`
	DB          string          `name:"db" help:"Document database path" default:"${db_path}" env:"STANDOFF_DB" type:"path"`
	LogLevel    string          `name:"log-level" help:"Log level" default:"info" enum:"debug,info,warn,error" env:"STANDOFF_LOG_LEVEL"`
	LogFormat   string          `name:"log-format" help:"Log format" default:"text" enum:"text,json" env:"STANDOFF_LOG_FORMAT"`
	Workers     int             `help:"Documents processed concurrently" default:"4" env:"STANDOFF_WORKERS"`
	Compression string          `help:"Bundle compression" default:"xz" enum:"xz,gzip" env:"STANDOFF_COMPRESSION"`
}

// settings converts the flags into a config.Config.
func (g *Globals) settings() config.Config {
	return config.Config{
		DBPath:      g.DB,
		LogLevel:    g.LogLevel,
		LogFormat:   g.LogFormat,
		Workers:     g.Workers,
		Compression: g.Compression,
	}
}

// openStore opens the document database named by --db.
func (g *Globals) openStore(ctx context.Context) (*docstore.Store, error) {
	store, err := docstore.Open(ctx, g.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	return store, nil
}

// CLI defines the command-line interface for standoff.
type CLI struct {
	Globals

	Codec   CodecGroup  `cmd:"" help:"Encode and decode feature value collections"`
	Doc     DocGroup    `cmd:"" help:"Document operations (import, list, show, query, export)"`
	Bundle  BundleGroup `cmd:"" help:"Pack and unpack document bundles"`
	Version VersionCmd  `cmd:"" help:"Print version information"`
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(out io.Writer) error {
	fmt.Fprintf(out, "standoff version %s\n", version)
	return nil
}

// run parses args and executes the selected command.
func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("standoff"),
		kong.Description("Stand-off annotation store"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(kong.JSON, "~/.standoff/config.json"),
		kong.Vars{"db_path": config.DefaultDBPath()},
		kong.Writers(stdout, stderr),
		kong.BindTo(stdout, (*io.Writer)(nil)),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg := cli.settings()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.InitLogging(stderr); err != nil {
		return err
	}
	return kctx.Run(&cli.Globals)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "standoff: error: %v\n", err)
		os.Exit(1)
	}
}
