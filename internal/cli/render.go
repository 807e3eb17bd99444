package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/weftml/weft/internal/directive"
	"github.com/weftml/weft/internal/directives"
	"github.com/weftml/weft/internal/engine"
	"github.com/weftml/weft/internal/serialize"
	"github.com/weftml/weft/internal/source"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	ContextFile string
	Output      string
	Prefix      string
	MaxDepth    int
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <template-file>",
		Short: "Render a template file",
		Long: `Render a markup template by executing its attribute directives.

Context variables come from a YAML file whose top-level mapping seeds the
root scope.

Example:
  weft render page.html --context data.yaml
  weft render feed.xml --mode xml --context data.yaml -o out.xml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.ContextFile, "context", "", "path to YAML context data")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", directives.DefaultPrefix, "directive attribute prefix")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "markup nesting limit (0 = unbounded)")

	return cmd
}

func runRender(opts *RenderOptions, templatePath string, stdout io.Writer) error {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	vars, err := loadContext(opts.ContextFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load context", err)
	}

	tmpl, err := os.Open(templatePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open template", err)
	}
	defer tmpl.Close()

	out := stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		out = f
	}

	reg := directive.NewRegistry()
	directives.Register(reg, opts.Prefix)

	engOpts := []engine.Option{
		engine.WithTemplateName(templatePath),
		engine.WithLogger(log),
	}
	if opts.Mode == "xml" {
		engOpts = append(engOpts, engine.WithMode(engine.ModeXML))
	}
	if opts.MaxDepth > 0 {
		engOpts = append(engOpts, engine.WithMaxNestingDepth(opts.MaxDepth))
	}
	eng := engine.New(reg, serialize.NewWriter(out), engOpts...)

	for name, value := range vars {
		eng.Scopes().Set(name, value)
	}

	log.Debug("rendering template", "template", templatePath, "mode", opts.Mode)
	if err := source.Feed(tmpl, templatePath, eng); err != nil {
		return WrapExitError(ExitFailure, "render failed", err)
	}
	return nil
}

// loadContext reads the YAML context file into root-scope variables. An
// empty path yields an empty context.
func loadContext(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vars map[string]any
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("parse context %s: %w", path, err)
	}
	return vars, nil
}
