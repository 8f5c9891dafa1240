package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/leofalp/daggo/core/graph"
	"github.com/leofalp/daggo/core/view"
	"github.com/leofalp/daggo/internal/workflowfile"
	"github.com/leofalp/daggo/providers/endpoint"
	"github.com/leofalp/daggo/providers/endpoint/gradio"
	"github.com/leofalp/daggo/providers/endpoint/middleware"
	"github.com/leofalp/daggo/providers/inference"
	"github.com/leofalp/daggo/providers/inference/openaicompat"
	"github.com/leofalp/daggo/providers/observability/slogobs"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	file        string
	describe    bool
	batch       bool
	concurrent  bool
	nodeTimeout time.Duration
	callTimeout time.Duration
	retries     int
	logLevel    string
	logFormat   string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	flags := flag.NewFlagSet("daggo", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.file, "file", "workflow.hcl", "workflow file to load")
	flags.BoolVar(&opts.describe, "describe", false, "print the graph structure instead of running it")
	flags.BoolVar(&opts.batch, "batch", false, "keep running independent branches after a failure")
	flags.BoolVar(&opts.concurrent, "concurrent", false, "run the nodes of a level concurrently")
	flags.DurationVar(&opts.nodeTimeout, "node-timeout", 0, "per-node time limit (0 disables it)")
	flags.DurationVar(&opts.callTimeout, "call-timeout", 0, "time limit per endpoint call attempt (0 disables it)")
	flags.IntVar(&opts.retries, "retries", 3, "retries for failed endpoint calls (0 disables retrying)")
	flags.StringVar(&opts.logLevel, "log-level", "", "trace, debug, info, warn or error (default from DAGGO_LOG_LEVEL)")
	flags.StringVar(&opts.logFormat, "log-format", "", "text or json (default from DAGGO_LOG_FORMAT)")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", flags.Args())
	}
	return opts, nil
}

// collaborators are the remote services nodes talk to. Tests swap them for
// fakes.
type collaborators struct {
	connector endpoint.Connector
	generator inference.TextGenerator
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return runWith(ctx, args, stdout, stderr, nil)
}

func runWith(ctx context.Context, args []string, stdout, stderr io.Writer, deps *collaborators) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	observerOpts := []slogobs.Option{slogobs.WithOutput(stderr)}
	if opts.logLevel != "" {
		observerOpts = append(observerOpts, slogobs.WithLevel(slogobs.ParseLevel(opts.logLevel)))
	}
	if opts.logFormat != "" {
		observerOpts = append(observerOpts, slogobs.WithFormat(slogobs.ParseFormat(opts.logFormat)))
	}
	observer := slogobs.New(observerOpts...)

	if deps == nil {
		middlewares := []endpoint.Middleware{middleware.NewLoggingMiddleware(observer.Logger(), middleware.LogLevelStandard)}
		if opts.retries > 0 {
			middlewares = append(middlewares, middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: opts.retries}))
		}
		if opts.callTimeout > 0 {
			middlewares = append(middlewares, middleware.NewTimeoutMiddleware(opts.callTimeout))
		}
		deps = &collaborators{
			connector: gradio.New(gradio.WithObserver(observer), gradio.WithMiddleware(middlewares...)),
			generator: openaicompat.New(),
		}
	}

	workflow, err := workflowfile.Load(ctx, opts.file, workflowfile.Dependencies{
		Connector: deps.connector,
		Observer:  observer,
	})
	if err != nil {
		fmt.Fprintf(stderr, "daggo: %v\n", err)
		return exitFailure
	}

	if opts.describe {
		return printJSON(stdout, stderr, view.Describe(workflow.Graph))
	}

	executorOpts := []graph.ExecutorOption{graph.WithTextGenerator(deps.generator)}
	if opts.nodeTimeout > 0 {
		executorOpts = append(executorOpts, graph.WithNodeTimeout(opts.nodeTimeout))
	}
	if opts.concurrent {
		executorOpts = append(executorOpts, graph.WithConcurrentLevels())
	}
	executor := graph.NewExecutor(workflow.Graph, executorOpts...)

	if opts.batch {
		report := executor.RunBatch(ctx, workflow.Inputs)
		code := printJSON(stdout, stderr, view.FormatReport(report))
		if err := report.Err(); err != nil {
			fmt.Fprintf(stderr, "daggo: %v\n", err)
			return exitFailure
		}
		return code
	}

	results, runErr := executor.ExecuteAll(ctx, workflow.Inputs)
	code := printJSON(stdout, stderr, view.FormatResults(workflow.Graph, results))
	if runErr != nil {
		fmt.Fprintf(stderr, "daggo: %v\n", runErr)
		return exitFailure
	}
	return code
}

func printJSON(stdout, stderr io.Writer, value any) int {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		fmt.Fprintf(stderr, "daggo: encoding output: %v\n", err)
		return exitFailure
	}
	return exitOK
}
