package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/pipeline"
	"github.com/matzehuels/fpgaroute/pkg/report"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

// renderCommand creates the render command, which redraws a routing saved
// with the json format without routing again.
func (c *CLI) renderCommand() *cobra.Command {
	var output, name, formats, nets string

	cmd := &cobra.Command{
		Use:   "render <graph.json> <result.json>",
		Short: "Render a saved routing as text or Graphviz drawings",
		Long: `Render reads a routing written by "route -f json" and produces other report
formats from it. The graph must be the one the routing was made on.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := pipeline.ParseFormats(formats)
			if formats == "" {
				fs = []string{pipeline.FormatSVG}
			}
			if err := pipeline.ValidateFormats(fs); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidFormat, err, "render")
			}
			if name == "" {
				name = strings.TrimSuffix(strings.TrimSuffix(filepath.Base(args[1]), ".json"), ".route")
			}
			return c.runRender(args[0], args[1], output, name, fs, splitList(nets))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ".", "output directory")
	cmd.Flags().StringVarP(&name, "name", "n", "", "base name of the output files (default: result file name)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): svg (default), png, dot, dump, overuse (comma-separated)")
	cmd.Flags().StringVar(&nets, "nets", "", "draw only these nets (comma-separated)")

	return cmd
}

func (c *CLI) runRender(graphPath, resultPath, dir, name string, formats, nets []string) error {
	prog := newProgress(c.Logger)
	g, err := rrgraph.ImportJSON(graphPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(resultPath)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "result file %s", resultPath)
		}
		return err
	}
	res, err := report.UnmarshalResult(data, g)
	if err != nil {
		return err
	}

	artifacts := make(map[string][]byte, len(formats))
	for _, f := range formats {
		if artifacts[f], err = pipeline.Render(g, res, f, nets); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "render %s", f)
		}
	}
	files, err := pipeline.WriteArtifacts(dir, name, artifacts)
	if err != nil {
		return err
	}
	prog.done("Rendered " + strings.Join(formats, ", "))

	printSuccess("%s", report.Summarize(res).String())
	for _, f := range files {
		printFile(f)
	}
	return nil
}
