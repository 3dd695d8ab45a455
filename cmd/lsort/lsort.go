package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/alecthomas/units"
	"github.com/brimdata/lsort/compare"
	"github.com/brimdata/lsort/engine"
	"github.com/brimdata/lsort/pkg/charm"
	"github.com/brimdata/lsort/pkg/rlimit"
	"github.com/brimdata/lsort/pkg/signalctx"
	"github.com/brimdata/lsort/sorter"
	"go.uber.org/zap"
)

var Lsort = &charm.Spec{
	Name:  "lsort",
	Usage: "lsort [ options ]",
	Short: "sort lines of text of any size",
	Long: `
lsort sorts stdin to stdout, printing the result in increasing order.
Input that fits in memory is sorted in one pass; anything bigger spills
to sorted temporary runs that are merged with a bounded fan-in, so
input size is limited by disk, not RAM.

By default lines are compared as strings.  With -n each line is ordered
by its leading number (skipping whitespace); lines with no leading
number sort first, so a CSV header stays at the top, and numeric ties
are broken by string comparison.  With -q a leading double quote is
skipped before the number is parsed, which sorts quoted CSV fields
numerically; -q implies -n.

With -u only lines that differ from the previously printed line are
printed, deleting duplicates.`,
	New: New,
}

func init() {
	Lsort.Add(charm.Help)
}

type Command struct {
	numeric      bool
	quoted       bool
	unique       bool
	verbose      bool
	memory       string
	maxRecords   int
	maxRuns      int
	tempDir      string
	maxImbalance float64
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{}
	f.BoolVar(&c.numeric, "n", false, "sort lines by their leading number")
	f.BoolVar(&c.quoted, "q", false, "allow the leading number to be double quoted (implies -n)")
	f.BoolVar(&c.unique, "u", false, "only print lines that are unique (i.e., delete duplicates)")
	f.BoolVar(&c.verbose, "v", false, "print timing diagnostics to stderr")
	f.StringVar(&c.memory, "memory", "", "in-memory bytes before spilling, e.g. 512MiB (default 1/8th of RAM)")
	f.IntVar(&c.maxRecords, "maxrecords", 0, "in-memory record count before spilling (0 for no cap)")
	f.IntVar(&c.maxRuns, "maxruns", engine.DefaultMaxRunFiles, "merge fan-in limit on temporary run files")
	f.StringVar(&c.tempDir, "tempdir", "", "directory for temporary run files (default system temp)")
	f.Float64Var(&c.maxImbalance, "maximbalance", 0, "partition imbalance that escalates pivot selection (0 for default)")
	return c, nil
}

func (c *Command) Run(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("invalid argument %q: lsort reads stdin and takes options only", args[0])
	}
	mode := compare.ModeString
	if c.numeric {
		mode = compare.ModeNumeric
	}
	if c.quoted {
		mode = compare.ModeQuotedNumeric
	}
	var maxBytes int64
	if c.memory != "" {
		n, err := units.ParseStrictBytes(c.memory)
		if err != nil {
			return fmt.Errorf("-memory: %w", err)
		}
		maxBytes = n
	}
	logger := zap.NewNop()
	if c.verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}
	if n, err := rlimit.RaiseOpenFilesLimit(); err != nil {
		logger.Warn("raising open files limit failed", zap.Error(err))
	} else {
		logger.Info("open files limit", zap.Int("limit", n))
	}
	ctx, cancel := signalctx.New(os.Interrupt, syscall.SIGTERM)
	defer cancel()
	e, err := engine.New(engine.Config{
		Mode:        mode,
		Unique:      c.unique,
		MaxRecords:  c.maxRecords,
		MaxBytes:    maxBytes,
		MaxRunFiles: c.maxRuns,
		TempDir:     c.tempDir,
		Sorter:      &sorter.Sorter{MaxImbalance: c.maxImbalance},
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	// Run cleans up after itself, but a signal must reclaim the
	// temporary runs even while Run is blocked on I/O.
	go func() {
		<-ctx.Done()
		e.Cleanup()
	}()
	return e.Run(ctx, os.Stdin, os.Stdout)
}
