package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/fpgaroute/pkg/errors"
	"github.com/matzehuels/fpgaroute/pkg/fabric"
	"github.com/matzehuels/fpgaroute/pkg/netlist"
	"github.com/matzehuels/fpgaroute/pkg/rrgraph"
)

const (
	generatedGraph   = "device.json"
	generatedNetlist = "nets.json"
)

// generateCommand creates the generate command, which writes a synthetic
// device and a random netlist to route on.
func (c *CLI) generateCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		p       fabric.Params
		np      fabric.NetParams
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an island-style device and a random netlist",
		Long: `Generate builds a Width x Height array of logic blocks with routing channels
between them and draws a reproducible random netlist for it. Unset flags
fall back to the [device] and [nets] tables of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			dp, nets := c.Config.Device, c.Config.Nets
			override(f.Changed("width"), &dp.Width, p.Width)
			override(f.Changed("height"), &dp.Height, p.Height)
			override(f.Changed("channel-width"), &dp.ChannelWidth, p.ChannelWidth)
			override(f.Changed("segment-length"), &dp.SegmentLength, p.SegmentLength)
			override(f.Changed("inputs"), &dp.Inputs, p.Inputs)
			override(f.Changed("outputs"), &dp.Outputs, p.Outputs)
			override(f.Changed("fc-in"), &dp.FcIn, p.FcIn)
			override(f.Changed("fc-out"), &dp.FcOut, p.FcOut)
			override(f.Changed("nets"), &nets.Count, np.Count)
			override(f.Changed("max-fanout"), &nets.MaxFanout, np.MaxFanout)
			override(f.Changed("seed"), &nets.Seed, np.Seed)
			return c.runGenerate(cmd, output, noCache, dp, nets)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", ".", "output directory")
	f.BoolVar(&noCache, "no-cache", false, "disable the result cache")
	f.IntVar(&p.Width, "width", 4, "logic blocks per row")
	f.IntVar(&p.Height, "height", 4, "logic blocks per column")
	f.IntVarP(&p.ChannelWidth, "channel-width", "W", 4, "tracks per channel")
	f.IntVar(&p.SegmentLength, "segment-length", 1, "tiles spanned by one track")
	f.IntVar(&p.Inputs, "inputs", 4, "input pins per block")
	f.IntVar(&p.Outputs, "outputs", 1, "output pins per block")
	f.IntVar(&p.FcIn, "fc-in", 0, "tracks each input pin connects to (default: channel width)")
	f.IntVar(&p.FcOut, "fc-out", 0, "tracks each output pin connects to (default: channel width)")
	f.IntVar(&np.Count, "nets", 32, "number of nets")
	f.IntVar(&np.MaxFanout, "max-fanout", 4, "largest number of sinks per net")
	f.Uint64Var(&np.Seed, "seed", 1, "random seed")

	return cmd
}

func (c *CLI) runGenerate(cmd *cobra.Command, dir string, noCache bool, p fabric.Params, np fabric.NetParams) error {
	ctx := cmd.Context()
	if err := errors.ValidateOutputPath(dir); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	g, nl, hit, err := runner.Generate(ctx, p, np)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Generated %dx%d device with %d nets", g.Width(), g.Height(), len(nl.Nets)))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
	}
	graphPath := filepath.Join(dir, generatedGraph)
	netlistPath := filepath.Join(dir, generatedNetlist)
	if err := rrgraph.ExportJSON(g, graphPath); err != nil {
		return err
	}
	if err := netlist.ExportJSON(nl, netlistPath); err != nil {
		return err
	}

	printSuccess("Generated device %s", StyleNumber.Render(fmt.Sprintf("%dx%d", g.Width(), g.Height())))
	printStats([]string{
		fmt.Sprintf("%d nodes", g.NumNodes()),
		fmt.Sprintf("%d edges", g.NumEdges()),
		fmt.Sprintf("%d nets", len(nl.Nets)),
	}, hit)
	printFile(graphPath)
	printFile(netlistPath)
	printNextStep("Route it", fmt.Sprintf("%s route %s %s", appName, graphPath, netlistPath))
	return nil
}
