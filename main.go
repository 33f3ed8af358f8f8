package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"

	"github.com/Jon-Bright/rccctl/board"
	"github.com/Jon-Bright/rccctl/rcc"
	"github.com/Jon-Bright/rccctl/regs"
)

const (
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorReset = "\x1b[0m"
)

type options struct {
	board      string
	dev        string
	lock       string
	maxPolls   int
	readyAfter int
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "rccctl",
		Short:         "Configure and inspect a CH32V103 clock tree",
		Long:          "rccctl derives, checks and applies clock tree configurations described by YAML board files.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.board, "board", "b", "", "board file (default: reset clocks on "+board.DEFAULT_CHIP+")")
	rootCmd.PersistentFlags().StringVar(&opts.dev, "dev", "sim", "register backend: mem (/dev/mem) or sim")
	rootCmd.PersistentFlags().StringVar(&opts.lock, "lock", regs.LOCK_FILE, "lock file guarding the mem backend")
	rootCmd.PersistentFlags().IntVar(&opts.maxPolls, "max-polls", rcc.DEFAULT_MAX_POLLS, "polls before a ready flag counts as a hardware fault (0 for the default)")
	rootCmd.PersistentFlags().IntVar(&opts.readyAfter, "sim-ready-after", 3, "reads the sim backend takes to raise a ready flag")

	rootCmd.AddCommand(
		newFreqCmd(opts),
		newValidateCmd(opts),
		newSetupCmd(opts),
		newStatusCmd(opts),
		newServeCmd(opts),
		newChipsCmd(),
	)
	return rootCmd
}

func (o *options) loadBoard() (*board.Board, error) {
	if o.board == "" {
		return board.Default(), nil
	}
	return board.Load(o.board)
}

// openDevice returns the register file selected by --dev and a function to
// release it.
func (o *options) openDevice(b *board.Board) (regs.File, func() error, error) {
	switch o.dev {
	case "mem":
		m, err := regs.OpenMemory(b.Chip, o.lock)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	case "sim":
		s := rcc.NewSim(rcc.SimOptions{ReadyAfter: o.readyAfter})
		// serve keeps the sim for its lifetime; the access log is for tests.
		s.Record = false
		return s, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown device %q, want mem or sim", o.dev)
}

func (o *options) sequencer(f regs.File) *rcc.Sequencer {
	s := rcc.NewSequencer(f)
	s.MaxPolls = o.maxPolls
	return s
}

func printOK(w io.Writer, format string, v ...interface{}) {
	fmt.Fprintf(w, colorGreen+"OK"+colorReset+" "+format+"\n", v...)
}

func printFail(w io.Writer, err error) {
	fmt.Fprintf(w, colorRed+"FAIL"+colorReset+" %v\n", err)
}

// execute runs cmd and reports a failure once, on its error stream. It
// returns the process exit code.
func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		printFail(cmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func main() {
	cmd := newRootCmd()
	cmd.SetOut(colorable.NewColorableStdout())
	cmd.SetErr(colorable.NewColorableStderr())
	os.Exit(execute(cmd))
}
