// SPDX-License-Identifier: MPL-2.0

package msbuild

import (
	"context"
	"errors"
	"strings"
)

type (
	// Orchestrator builds a list of targets one after another.
	Orchestrator struct {
		runner  ProcessRunner
		locator PathLocator
		args    ArgBuilder
		logger  Logger
	}

	// OrchestratorOption configures an Orchestrator.
	OrchestratorOption func(*Orchestrator)

	// run is the per-invocation state of Orchestrator.Run.
	run struct {
		*Orchestrator
		opts Options

		located    bool
		locatedCmd string
		warned     bool
	}
)

var errNoLocator = errors.New("no locator configured")

// WithArgBuilder replaces the default (current host OS) argument builder.
func WithArgBuilder(b ArgBuilder) OrchestratorOption {
	return func(o *Orchestrator) { o.args = b }
}

// NewOrchestrator creates an Orchestrator. locator may be nil when the caller
// never enables auto-location; a run that needs it then fails with
// LocatorExecutionError.
func NewOrchestrator(runner ProcessRunner, locator PathLocator, logger Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		runner:  runner,
		locator: locator,
		logger:  loggerOrDiscard(logger),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run builds every target in order and returns one Outcome per target that
// was attempted.
//
// The run stops early only on fatal conditions: an empty target list, missing
// tool configuration, a locator failure, a tool that cannot be started, or a
// non-zero exit while opts.FailFast is set. Without FailFast a failing target
// is logged and the next one is started; the returned error is then nil and
// the caller inspects Summary.Failed.
func (o *Orchestrator) Run(ctx context.Context, targets []Target, opts Options) (Summary, error) {
	var summary Summary

	if len(targets) == 0 {
		err := &NoTargetsError{}
		o.logger.Error(err.Error())
		return summary, err
	}

	r := &run{Orchestrator: o, opts: opts}
	for _, target := range targets {
		o.logger.Info("building", "project", target.DisplayName())

		command, err := r.command(ctx, target)
		if err != nil {
			return summary, err
		}

		args := o.args.Build(target, opts)
		outcome, err := o.runner.Run(command, args, target)
		if err != nil {
			o.logger.Error("could not start msbuild", "project", target.DisplayName(), "err", err)
			return summary, err
		}
		summary.Add(outcome)

		if outcome.Status == StatusFailed && opts.FailFast {
			return summary, &BuildFailureError{Project: target, ExitCode: outcome.ExitCode}
		}
	}

	if failed := summary.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, f := range failed {
			names[i] = f.Project.DisplayName()
		}
		o.logger.Warn("builds failed", "count", len(failed), "projects", strings.Join(names, ", "))
	}
	return summary, nil
}

// command resolves the executable for target. The vswhere lookup happens at
// most once per run.
func (r *run) command(ctx context.Context, target Target) (string, error) {
	opts := r.opts
	if opts.ToolPath == "" && !opts.AutoLocate {
		err := &ConfigurationError{Project: target}
		r.logger.Error(err.Error())
		return "", err
	}

	// An explicit tool path wins over auto-location.
	if opts.ToolPath != "" {
		r.warnIgnoredFilters()
		return opts.ToolPath, nil
	}

	if r.located {
		return r.locatedCmd, nil
	}
	if r.locator == nil {
		return "", &LocatorExecutionError{Locator: locatorName, Err: errNoLocator}
	}
	path, err := r.locator.Locate(ctx, opts.Locator)
	if err != nil {
		r.logger.Error("could not infer msbuild path", "err", err)
		return "", err
	}
	r.located, r.locatedCmd = true, path
	return path, nil
}

func (r *run) warnIgnoredFilters() {
	if r.warned {
		return
	}
	r.warned = true

	f := r.opts.Locator
	if len(f.Products) > 0 {
		r.logger.Warn("tool_path is set, locator products filter is ignored", "products", strings.Join(f.Products, " "))
	}
	if len(f.Requires) > 0 {
		r.logger.Warn("tool_path is set, locator requires filter is ignored", "requires", strings.Join(f.Requires, " "))
	}
	if f.Version != "" {
		r.logger.Warn("tool_path is set, locator version filter is ignored", "version", f.Version)
	}
}
