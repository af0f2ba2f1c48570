package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nilenso/ai-knowledge-graph/pkg/config"
	"github.com/nilenso/ai-knowledge-graph/pkg/glossary"
	"github.com/nilenso/ai-knowledge-graph/pkg/logger"
	"github.com/nilenso/ai-knowledge-graph/pkg/output"
	"github.com/nilenso/ai-knowledge-graph/pkg/pipeline"
)

var version = "0.1.0-dev"

const (
	defaultInput  = "ai-glossary.csv"
	defaultOutput = "ai-knowledge-graph.json"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// execute runs the CLI and returns the process exit code. Every failure is
// reported here, once.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &buildOptions{}
	root := newRootCmd(opts, stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, errorMessage(err, opts.input))
		return 1
	}
	return 0
}

func errorMessage(err error, input string) string {
	if errors.Is(err, glossary.ErrSourceNotFound) {
		return "Error: Could not find " + input
	}
	return "Error: " + err.Error()
}

type buildOptions struct {
	input      string
	output     string
	format     string
	sqlite     string
	configPath string
	noMentions bool
	stripHTML  bool
	minLength  int
	logLevel   string
}

func newRootCmd(opts *buildOptions, stdout io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "termgraph",
		Short: "Turn an AI glossary CSV into a knowledge graph",
		Long: `termgraph reads a glossary spreadsheet export and writes a knowledge graph:
one node per term, linked by synonym, related and mention edges.

Run without a subcommand it behaves like "termgraph build".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, stdout)
		},
	}
	addBuildFlags(rootCmd, opts)

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build the knowledge graph from a glossary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, stdout)
		},
	}
	addBuildFlags(buildCmd, opts)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "termgraph %s\n", version)
		},
	}

	rootCmd.AddCommand(buildCmd, versionCmd)
	return rootCmd
}

func addBuildFlags(cmd *cobra.Command, opts *buildOptions) {
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", defaultInput, "Glossary CSV path or http(s) URL")
	f.StringVarP(&opts.output, "output", "o", defaultOutput, "Graph output path")
	f.StringVarP(&opts.format, "format", "f", "", "Output format: json|msgpack (default from config)")
	f.StringVar(&opts.sqlite, "sqlite", "", "Also write the graph to this SQLite database")
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (default $"+config.EnvConfigPath+")")
	f.BoolVar(&opts.noMentions, "no-mentions", false, "Skip the mentions pass")
	f.BoolVar(&opts.stripHTML, "strip-html", false, "Strip HTML markup from definitions and explanations")
	f.IntVar(&opts.minLength, "min-length", 0, "Shortest term, in characters, matched by the mentions pass")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error")
}

func runBuild(cmd *cobra.Command, opts *buildOptions, stdout io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	res, err := pipeline.Run(cmd.Context(), pipeline.Request{
		Input:  opts.input,
		Output: opts.output,
		SQLite: opts.sqlite,
		Config: cfg,
		Logger: log,
	})
	if err != nil {
		return err
	}

	return output.Summary{
		Input:    opts.input,
		Outputs:  []string{opts.output},
		Database: opts.sqlite,
		Stats:    res.Stats,
	}.Print(stdout)
}

// applyFlags lets explicitly set flags win over the config file.
func applyFlags(cmd *cobra.Command, opts *buildOptions, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("format") {
		cfg.Output.Format = opts.format
	}
	if f.Changed("no-mentions") {
		cfg.Mentions.Enabled = !opts.noMentions
	}
	if f.Changed("strip-html") {
		cfg.StripHTML = opts.stripHTML
	}
	if f.Changed("min-length") {
		cfg.Mentions.MinLength = opts.minLength
	}
	if f.Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
}
