package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Jon-Bright/rccctl/rcc"
	"github.com/Jon-Bright/rccctl/regs"
)

func newFreqCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "freq",
		Short: "Print the frequencies a board's clock tree produces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.loadBoard()
			if err != nil {
				return err
			}
			f := b.Clocks.Frequencies()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 1, ' ', 0)
			fmt.Fprintf(w, "source\t%v\n", b.Clocks.Source)
			fmt.Fprintf(w, "SYSCLK\t%d Hz\n", f.SysClk)
			fmt.Fprintf(w, "HCLK\t%d Hz\n", f.HClk)
			fmt.Fprintf(w, "PCLK1\t%d Hz\n", f.PClk1)
			fmt.Fprintf(w, "PCLK2\t%d Hz\n", f.PClk2)
			fmt.Fprintf(w, "ADCCLK\t%d Hz\n", f.ADCClk)
			fmt.Fprintf(w, "flash wait states\t%d\n", rcc.FlashLatency(f.SysClk))
			return w.Flush()
		},
	}
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a board's clock tree against the hardware limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.loadBoard()
			if err != nil {
				return err
			}
			if err := rcc.Validate(b.Clocks); err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "SYSCLK %d Hz within limits", b.Clocks.SysClk())
			return nil
		},
	}
}

func newSetupCmd(opts *options) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Validate and apply a board's clock tree, remap, pins and timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.loadBoard()
			if err != nil {
				return err
			}
			if !force {
				if err := rcc.Validate(b.Clocks); err != nil {
					return fmt.Errorf("refusing to apply: %w (use --force to override)", err)
				}
			}
			f, release, err := opts.openDevice(b)
			if err != nil {
				return err
			}
			defer release()

			seq := opts.sequencer(f)
			if err := b.Bringup(f, seq); err != nil {
				return fmt.Errorf("%w (stopped in state %v)", err, seq.State())
			}
			printOK(cmd.OutOrStdout(), "active source %v, SYSCLK %d Hz", seq.CurrentSource(b.Clocks), b.Clocks.SysClk())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "apply even if the clock tree exceeds the hardware limits")
	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the system clock source the hardware has selected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.loadBoard()
			if err != nil {
				return err
			}
			f, release, err := opts.openDevice(b)
			if err != nil {
				return err
			}
			defer release()
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", opts.sequencer(f).CurrentSource(b.Clocks))
			return nil
		},
	}
}

func newChipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chips",
		Short: "List the chips a board file may name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintf(w, "CHIPS\tSERIES\tBASE\tPORTS\tFLASH\n")
			for _, c := range regs.Chips() {
				fmt.Fprintf(w, "%s\t%s\t%08X\tA-%c\t%d KB\n",
					strings.Join(c.Chips, ","), c.Series, c.PeriphBase, 'A'+rune(c.Ports-1), c.FlashKB)
			}
			return w.Flush()
		},
	}
}
