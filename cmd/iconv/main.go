// Package main provides the iconv command, which converts files between
// character encodings.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/mnightingale/iconv"
	"github.com/mnightingale/iconv/charset"
)

var (
	errInvalidConfig   = errors.New("invalid configuration")
	errTerminalOutput  = errors.New("refusing to write non-ASCII-compatible output to a terminal, use -force")
	errConversionFiles = errors.New("some inputs could not be converted")

	// isTerminal reports whether w is an interactive terminal.
	isTerminal = func(w io.Writer) bool {
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	}
)

type options struct {
	from        string
	to          string
	policy      iconv.ErrorPolicy
	jobs        int
	metricsFile string
	list        bool
	force       bool
	verbose     bool
	files       []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, fs, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		printUsage(fs, stderr)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.list {
		for _, name := range charset.Names() {
			_, _ = fmt.Fprintln(stdout, name)
		}
		return 0
	}

	logger := newLogger(stderr, opts.verbose)
	defer func() { _ = logger.Sync() }()
	iconv.SetLogger(logger)

	reg := prometheus.NewRegistry()
	p := iconv.Instrument(iconv.Default(), iconv.NewMetrics(reg))

	code := 0
	if err := convertAll(p, opts, stdin, stdout, stderr, logger); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		code = 1
	}

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error writing metrics: %v\n", err)
			code = 1
		}
	}
	return code
}

func parseArgs(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	var (
		configPath string
		policy     string
		ignore     bool
		opts       options
	)

	fs := flag.NewFlagSet("iconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }
	fs.StringVar(&opts.from, "f", "", "Encoding of the input (default UTF-8)")
	fs.StringVar(&opts.to, "t", "", "Encoding of the output (default UTF-8)")
	fs.StringVar(&policy, "errors", "", "Handling of invalid input: strict, replace or ignore")
	fs.BoolVar(&ignore, "c", false, "Omit invalid characters from output (same as -errors ignore)")
	fs.StringVar(&configPath, "config", "", "Path to a TOML configuration file")
	fs.StringVar(&opts.metricsFile, "metrics", "", "Write Prometheus metrics to this file on exit")
	fs.IntVar(&opts.jobs, "j", 0, "Number of inputs converted in parallel (default number of CPUs)")
	fs.BoolVar(&opts.list, "l", false, "List known encodings")
	fs.BoolVar(&opts.force, "force", false, "Write output to a terminal even if it is not ASCII-compatible")
	fs.BoolVar(&opts.verbose, "v", false, "Log conversion details to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if configPath != "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return nil, fs, err
		}
		if !set["f"] {
			opts.from = cfg.From
		}
		if !set["t"] {
			opts.to = cfg.To
		}
		if !set["errors"] {
			policy = cfg.Errors
		}
		if !set["j"] {
			opts.jobs = cfg.Jobs
		}
		if !set["metrics"] {
			opts.metricsFile = cfg.MetricsFile
		}
	}

	var err error
	if opts.policy, err = iconv.ParseErrorPolicy(policy); err != nil {
		return nil, fs, err
	}
	if ignore {
		opts.policy = iconv.Ignore
	}
	if opts.jobs < 0 {
		return nil, fs, fmt.Errorf("%w: -j must not be negative", errInvalidConfig)
	}
	if opts.jobs == 0 {
		opts.jobs = runtime.NumCPU()
	}
	if opts.from == "" {
		opts.from = "UTF-8"
	}
	if opts.to == "" {
		opts.to = "UTF-8"
	}

	opts.files = fs.Args()
	if len(opts.files) == 0 {
		opts.files = []string{"-"}
	}
	return &opts, fs, nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	if fs == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Usage: %s [flags] [<file>...]\n", filepath.Base(os.Args[0]))
	fs.PrintDefaults()
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zap.WarnLevel
	if verbose {
		level = zap.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}

// convertAll converts every input in parallel and writes the outputs to stdout
// in argument order. Inputs that fail to convert are reported and skipped.
func convertAll(p iconv.Primitive, opts *options, stdin io.Reader, stdout, stderr io.Writer, logger *zap.Logger) error {
	if isTerminal(stdout) && !opts.force {
		ok, err := asciiCompatible(p, opts.to)
		if err != nil {
			return err
		}
		if !ok {
			return errTerminalOutput
		}
	}

	outputs := make([][]byte, len(opts.files))
	failures := make([]error, len(opts.files))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(opts.jobs)
	for i, name := range opts.files {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			in, err := readInput(name, stdin)
			if err != nil {
				return err
			}
			out, err := convert(p, opts, in)
			if err != nil {
				failures[i] = fmt.Errorf("%s: %w", name, err)
			}
			outputs[i] = out
			logger.Debug("converted",
				zap.String("input", name),
				zap.Int("in_bytes", len(in)),
				zap.Int("out_bytes", len(out)),
				zap.Error(err),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := false
	for i, out := range outputs {
		if _, err := stdout.Write(out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if failures[i] != nil {
			failed = true
			_, _ = fmt.Fprintf(stderr, "iconv: %v\n", failures[i])
		}
	}
	if failed {
		return errConversionFiles
	}
	return nil
}

func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

// convert converts one whole input. On failure it returns the output for the
// input converted before the error.
func convert(p iconv.Primitive, opts *options, in []byte) ([]byte, error) {
	h, err := iconv.OpenWith(p, opts.to, opts.from)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	t := iconv.NewTranscoder(h)
	t.Policy = opts.policy
	if cs := charset.Lookup(opts.from); cs != nil && cs.Name == "UTF-8" {
		t.Skip = iconv.SkipRune
	}
	if opts.policy == iconv.Replace {
		if t.Replacement, err = replacement(p, opts.to); err != nil {
			return nil, err
		}
	}

	out, _, err := t.Transcode(in)
	return out, err
}

// replacement returns '?' in the encoding name.
func replacement(p iconv.Primitive, name string) ([]byte, error) {
	h, err := iconv.OpenWith(p, name, "UTF-8")
	if err != nil {
		return nil, err
	}
	defer h.Close()

	out, _, err := iconv.NewTranscoder(h).Transcode([]byte("?"))
	return out, err
}

// asciiCompatible reports whether text in the encoding name reads as ASCII.
func asciiCompatible(p iconv.Primitive, name string) (bool, error) {
	const probe = "iconv\n"

	h, err := iconv.OpenWith(p, name, "UTF-8")
	if err != nil {
		return false, err
	}
	defer h.Close()

	out, _, err := iconv.NewTranscoder(h).Transcode([]byte(probe))
	if err != nil {
		return false, nil
	}
	return bytes.Equal(out, []byte(probe)), nil
}
