package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/quailyquaily/unifix"
	"github.com/quailyquaily/unifix/repair"
)

const (
	modeRepair   = "repair"
	modeValidate = "validate"
	modePrettify = "prettify"

	defaultIndent     = 2
	defaultSummaryCSV = "unifix_summary.csv"
)

// errFailed reports that at least one input could not be repaired or is
// invalid. Details have already been written.
var errFailed = errors.New("one or more inputs failed")

func main() {
	_ = godotenv.Load()
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

type options struct {
	format   repair.Format
	mode     string
	indent   int
	fallback bool
	quiet    bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("unifix", flag.ContinueOnError)
	fs.SetOutput(stderr)

	format := fs.String("format", "auto", "input format: auto|json|xml")
	validate := fs.Bool("validate", false, "report issues without repairing")
	prettify := fs.Bool("prettify", false, "print the document indented")
	indent := fs.Int("indent", defaultIndent, "indent width for --prettify")
	fallback := fs.Bool("fallback", false, "use the generative fallback when rules fail")
	quiet := fs.Bool("quiet", false, "do not print applied fixes")
	configPath := fs.String("config", "", "path to a batch jobs yaml")
	outputPath := fs.String("output", defaultSummaryCSV, "batch summary csv path")
	traceDir := fs.String("trace-dir", "", "write fallback request/response traces to this directory")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *validate && *prettify {
		return fmt.Errorf("--validate and --prettify are mutually exclusive")
	}

	f, err := unifix.ParseFormat(*format)
	if err != nil {
		return err
	}
	opts := options{format: f, mode: modeRepair, indent: *indent, fallback: *fallback, quiet: *quiet}
	switch {
	case *validate:
		opts.mode = modeValidate
	case *prettify:
		opts.mode = modePrettify
	}

	cfg, err := unifix.ConfigFromEnv()
	if err != nil {
		return err
	}
	if opts.fallback {
		cfg.UseFallback = true
	}
	if dir := strings.TrimSpace(*traceDir); dir != "" {
		recorder := &traceRecorder{}
		cfg.DebugFn = recorder.DebugFn
		defer func() {
			path, err := writeTrace(dir, recorder.Entries(), time.Now())
			if err != nil {
				fmt.Fprintf(stderr, "trace: %v\n", err)
			} else if path != "" {
				fmt.Fprintf(stderr, "trace written: %s\n", path)
			}
		}()
	}

	rest := fs.Args()
	if len(rest) > 0 && rest[0] == "batch" {
		if len(rest) != 1 || strings.TrimSpace(*configPath) == "" {
			return usageError()
		}
		return runBatch(context.Background(), cfg, *configPath, strings.TrimSpace(*outputPath), stdout)
	}

	client := unifix.New(cfg)
	if len(rest) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		return processOne(context.Background(), client, opts, "<stdin>", string(data), stdout, stderr)
	}

	failed := false
	for _, path := range rest {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %q: %w", path, err)
		}
		if err := processOne(context.Background(), client, opts, path, string(data), stdout, stderr); err != nil {
			if !errors.Is(err, errFailed) {
				return err
			}
			failed = true
		}
	}
	if failed {
		return errFailed
	}
	return nil
}

func processOne(ctx context.Context, client *unifix.Client, opts options, name, text string, stdout, stderr io.Writer) error {
	switch opts.mode {
	case modeValidate:
		v, err := client.Validate(opts.format, text)
		if err != nil {
			return err
		}
		if v.Valid {
			fmt.Fprintf(stdout, "%s: valid\n", name)
			return nil
		}
		for _, issue := range v.Issues {
			fmt.Fprintf(stdout, "%s:%d: %s: %s\n", name, issue.Line, issue.Kind, issue.Message)
		}
		return errFailed

	case modePrettify:
		out, err := client.Prettify(opts.format, text, opts.indent)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
			return errFailed
		}
		fmt.Fprintln(stdout, out)
		return nil

	default:
		res, err := client.Repair(ctx, opts.format, text)
		if err != nil {
			return err
		}
		if !opts.quiet {
			for _, fix := range res.AppliedFixes {
				fmt.Fprintf(stderr, "%s: %s\n", name, fix)
			}
		}
		if !res.Success {
			for _, e := range res.Errors {
				fmt.Fprintf(stderr, "%s:%d: %s: %s\n", name, e.Line, e.Kind, e.Message)
			}
			if res.CanRetryWithFallback && !opts.fallback {
				fmt.Fprintf(stderr, "%s: rule-based repair failed; retry with --fallback\n", name)
			}
			return errFailed
		}
		fmt.Fprintln(stdout, res.FixedText)
		return nil
	}
}

func usageError() error {
	return fmt.Errorf("usage: unifix [--format auto|json|xml] [--validate|--prettify] [--fallback] [file ...]\n       unifix --config jobs.yaml [--output summary.csv] batch")
}
