// Package internal contains the command tree of the oapi-modelgen CLI.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/oapi-codegen/oapi-modelgen/pkg/codegen"
	"github.com/oapi-codegen/oapi-modelgen/pkg/util"
)

// Run executes the CLI with args. It is separated from main so that tests
// can supply their own arguments and output streams.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "oapi-modelgen",
		Short:         "Resolve the schemas of an OpenAPI document into named models",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

type generateFlags struct {
	configPath    string
	overlayPath   string
	existingPath  string
	baseNamespace string
	output        string
	format        string
	verbose       bool
}

func newGenerateCmd() *cobra.Command {
	var flags generateFlags
	cmd := &cobra.Command{
		Use:   "generate <spec>",
		Short: "Print the model manifest of an OpenAPI document",
		Long: `Locate every model-worthy schema of an OpenAPI document, name and classify
it, reconcile the names with previously generated code and print the result
as a manifest.`,
		Example: `  # Print the manifest of a local document
  oapi-modelgen generate petstore.yaml

  # Keep the identifiers of code generated earlier
  oapi-modelgen generate --existing-models ./models -f json petstore.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "a YAML config file that controls model resolution")
	cmd.Flags().StringVar(&flags.overlayPath, "overlay", "", "an OpenAPI Overlay applied to the document before resolution")
	cmd.Flags().StringVar(&flags.existingPath, "existing-models", "", "directory of previously generated code, overrides existing-models-path")
	cmd.Flags().StringVar(&flags.baseNamespace, "base-namespace", "", "namespace of generated models, overrides base-namespace")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "where to write the manifest, defaults to stdout")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "yaml", "manifest format, yaml or json")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "log progress to stderr")
	return cmd
}

func runGenerate(cmd *cobra.Command, specPath string, flags generateFlags) error {
	if flags.format != "yaml" && flags.format != "json" {
		return &codegen.ConfigError{Option: "format", Value: flags.format, Message: "must be yaml or json"}
	}

	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	var opts codegen.Configuration
	if flags.configPath != "" {
		var err error
		if opts, err = codegen.LoadConfigurationFile(flags.configPath); err != nil {
			return err
		}
	}
	if flags.existingPath != "" {
		opts.ExistingModelsPath = flags.existingPath
	}
	if flags.baseNamespace != "" {
		opts.BaseNamespace = flags.baseNamespace
	}
	opts.Logger = logger

	swagger, err := util.LoadSwaggerWithOverlay(specPath, util.LoadSwaggerWithOverlayOpts{
		Path:   flags.overlayPath,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("error loading swagger spec in %s: %w", specPath, err)
	}

	result, err := codegen.Generate(swagger, opts)
	if err != nil {
		return fmt.Errorf("error generating models: %w", err)
	}
	manifest, err := result.Manifest()
	if err != nil {
		return err
	}

	var out []byte
	if flags.format == "json" {
		out, err = manifest.JSON()
	} else {
		out, err = manifest.YAML()
	}
	if err != nil {
		return err
	}

	if flags.output == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(flags.output, out, 0o644); err != nil {
		return fmt.Errorf("error writing manifest to %s: %w", flags.output, err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of oapi-modelgen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), cmd.Root().Name(), version())
			return err
		},
	}
}

func version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok || bi.Main.Version == "" {
		return "(devel)"
	}
	return bi.Main.Version
}
