// Package main is the entry point for the eventmix scenario runner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/eventmix/internal/metrics"
	"github.com/dshills/eventmix/internal/scenario"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

type options struct {
	format   string
	logLevel string
	logJSON  bool
	parallel int
	metrics  bool
	version  bool
	files    []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if opts.version {
		fmt.Fprintf(stdout, "eventmix %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return exitOK
	}

	logger, err := newLogger(opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	var recorder *metrics.Recorder
	runnerOpts := []scenario.RunnerOption{scenario.WithLogger(logger)}
	if opts.metrics {
		recorder = metrics.NewRecorder(metrics.Namespace)
		runnerOpts = append(runnerOpts, scenario.WithObserver(recorder))
	}
	runner := scenario.NewRunner(runnerOpts...)

	results := make([]result, len(opts.files))
	eg := errgroup.Group{}
	eg.SetLimit(opts.parallel)
	for i, path := range opts.files {
		i, path := i, path
		eg.Go(func() error {
			results[i] = runFile(ctx, runner, logger, path)
			return nil
		})
	}
	_ = eg.Wait()

	code := exitOK
	reports := make([]*scenario.Report, 0, len(results))
	for _, res := range results {
		if res.failed {
			code = exitFailed
		}
		if res.report != nil {
			reports = append(reports, res.report)
		}
	}

	if err := writeReports(stdout, opts.format, reports); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}

	if recorder != nil {
		if err := writeMetrics(stdout, recorder); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailed
		}
	}
	return code
}

type result struct {
	report *scenario.Report
	failed bool
}

func runFile(ctx context.Context, runner *scenario.Runner, logger logrus.FieldLogger, path string) result {
	log := logger.WithField("file", path)

	sc, err := scenario.Load(path)
	if err != nil {
		log.WithError(err).Error("Failed to load scenario")
		return result{failed: true}
	}

	report, err := runner.Run(ctx, sc)
	if err != nil {
		log.WithError(err).Error("Failed to run scenario")
		return result{report: report, failed: true}
	}
	return result{report: report, failed: report.Failed()}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("eventmix", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.format, "format", "text", "Report format (text, json)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.logJSON, "log-json", false, "Write logs as JSON")
	fs.IntVar(&opts.parallel, "parallel", 1, "Number of scenario files run concurrently")
	fs.BoolVar(&opts.metrics, "metrics", false, "Print Prometheus metrics after the reports")
	fs.BoolVar(&opts.version, "version", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "eventmix - run event emitter scenarios\n\n")
		fmt.Fprintf(stderr, "Usage: eventmix [options] FILE...\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  eventmix bubbling.yaml          Run a scenario\n")
		fmt.Fprintf(stderr, "  eventmix -format json *.toml    Report as JSON\n")
		fmt.Fprintf(stderr, "  eventmix -metrics a.yaml        Include dispatch metrics\n")
		fmt.Fprintf(stderr, "  eventmix -parallel 4 *.yaml     Run files concurrently\n")
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.files = fs.Args()

	if opts.version {
		return opts, nil
	}

	switch opts.format {
	case "text", "json":
	default:
		return opts, fmt.Errorf("invalid format %q", opts.format)
	}

	if opts.parallel < 1 {
		return opts, fmt.Errorf("invalid parallel %d", opts.parallel)
	}

	if len(opts.files) == 0 {
		fs.Usage()
		return opts, errors.New("no scenario files given")
	}
	return opts, nil
}

func newLogger(opts options, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	if opts.logJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return logger, nil
}

func writeReports(w io.Writer, format string, reports []*scenario.Report) error {
	if format == "json" {
		data, err := jsoniter.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding reports: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	for _, r := range reports {
		if _, err := fmt.Fprintln(w, r.Summary()); err != nil {
			return err
		}
		for _, f := range r.Failures() {
			if _, err := fmt.Fprintf(w, "    %s\n", f); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeMetrics(w io.Writer, recorder *metrics.Recorder) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(recorder); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
