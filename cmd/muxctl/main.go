// Command muxctl is the CLI entrypoint for the batch media transcoding
// orchestrator (§6): a single command accepting three config document
// paths (mission, templates, global), each independently JSON, YAML, or
// HOCON (§6 "Accepted file formats").
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coilpress/muxctl/internal/check"
	"github.com/coilpress/muxctl/internal/config"
	"github.com/coilpress/muxctl/internal/display"
	"github.com/coilpress/muxctl/internal/logging"
	"github.com/coilpress/muxctl/internal/mission"
	"github.com/coilpress/muxctl/internal/remux"

	"github.com/coilpress/muxctl/internal/audiotranscode"
	"github.com/coilpress/muxctl/internal/mux"
	"github.com/coilpress/muxctl/internal/probe"
	"github.com/coilpress/muxctl/internal/title"
	"github.com/coilpress/muxctl/internal/toolrun"
	"github.com/coilpress/muxctl/internal/videoencode"
)

// version is injected at build time via -ldflags.
var version = "0.1.0"

// Exit codes per §6: 0 ok, 2 config-validation error, 3 tool-not-found,
// 4 encode/mux failure after retries.
const (
	exitOK             = 0
	exitConfigError    = 2
	exitToolNotFound   = 3
	exitRuntimeFailure = 4
)

func main() {
	os.Exit(newRootCmd().run())
}

type rootCmd struct {
	overrides config.CLIOverrides
	cmd       *cobra.Command
	exitCode  int
}

func newRootCmd() *rootCmd {
	r := &rootCmd{}
	root := &cobra.Command{
		Use:     "muxctl",
		Short:   "Batch media transcoding and remux orchestrator",
		Version: version,
	}
	config.RegisterPersistentFlags(root.PersistentFlags(), &r.overrides)

	root.AddCommand(r.runCmd(), r.checkCmd(), r.planCmd())
	r.cmd = root
	return r
}

func (r *rootCmd) run() int {
	if err := r.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "muxctl: %v\n", err)
		if r.exitCode != 0 {
			return r.exitCode
		}
		return exitRuntimeFailure
	}
	return r.exitCode
}

// runCmd implements "muxctl run <mission> <templates> <global>": the full
// resolve -> validate -> expand -> execute pipeline (§4.10, §9).
func (r *rootCmd) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <mission> <templates> <global>",
		Short: "Resolve, validate, and run a mission batch",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := r.doRun(args[0], args[1], args[2])
			r.exitCode = code
			return err
		},
	}
}

// checkCmd implements "muxctl check <global>": the preflight
// tool-availability sweep (§4.1), usable standalone before committing to a
// batch.
func (r *rootCmd) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <global>",
		Short: "Verify every external tool muxctl depends on is reachable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := r.bootstrap(args[0])
			if err != nil {
				r.exitCode = exitConfigError
				return err
			}
			defer log.Close()

			inv := toolrun.New(cfg.ToolSearchDirs...)
			if err := check.Run(inv, log); err != nil {
				r.exitCode = exitToolNotFound
				return err
			}
			return nil
		},
	}
}

// planCmd implements "muxctl plan <mission> <templates> <global>": resolve
// and validate only, printing the expanded title count without encoding
// anything (a dry run over §4.10's Validate/Expand stages).
func (r *rootCmd) planCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <mission> <templates> <global>",
		Short: "Resolve and validate a mission document without encoding",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := r.bootstrap(args[2])
			if err != nil {
				r.exitCode = exitConfigError
				return err
			}
			defer log.Close()

			doc, plans, err := resolveAndValidate(args[0], args[1], cfg, log)
			if err != nil {
				r.exitCode = exitConfigError
				return err
			}
			log.Info("%d mission(s) expand to %d title(s)", len(doc.AllMissionConfig), len(plans))
			return nil
		},
	}
}

// bootstrap loads the global config document and brings up the logger,
// the only two things needed before any mission-specific work starts.
func (r *rootCmd) bootstrap(globalPath string) (config.GlobalConfig, *logging.Logger, error) {
	cfg, err := config.LoadGlobalConfig(globalPath)
	if err != nil {
		return cfg, nil, err
	}
	if err := r.overrides.Apply(r.cmd.PersistentFlags(), &cfg); err != nil {
		return cfg, nil, err
	}
	log, err := logging.NewLogger(&cfg)
	if err != nil {
		return cfg, nil, err
	}
	display.PrintBanner()
	return cfg, log, nil
}

// resolveAndValidate runs §4.10's Resolve/Validate/Expand stages and
// returns every error collected, prefixed so the caller can tell a
// ConfigError/RangeError/NotFoundError batch apart from a single wrapped
// error.
func resolveAndValidate(missionPath, templatesPath string, cfg config.GlobalConfig, log *logging.Logger) (*mission.Document, []mission.Plan, error) {
	templates, err := mission.LoadTemplatesFile(templatesPath)
	if err != nil {
		return nil, nil, err
	}

	doc, warnings, err := mission.ResolveFile(missionPath, templates)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		log.Warn("%s", w)
	}

	if errs := mission.Validate(doc, mission.ValidateOptions{}); len(errs) > 0 {
		for _, e := range errs {
			log.Error("%v", e)
		}
		return nil, nil, fmt.Errorf("mission: %d validation error(s)", len(errs))
	}

	plans, errs := mission.Expand(doc)
	if len(errs) > 0 {
		for _, e := range errs {
			log.Error("%v", e)
		}
		return nil, nil, fmt.Errorf("mission: %d expansion error(s)", len(errs))
	}

	return doc, plans, nil
}

// doRun drives the whole batch and maps the outcome to a §6 exit code.
func (r *rootCmd) doRun(missionPath, templatesPath, globalPath string) (int, error) {
	cfg, log, err := r.bootstrap(globalPath)
	if err != nil {
		return exitConfigError, err
	}
	defer log.Close()

	inv := toolrun.New(cfg.ToolSearchDirs...)
	if err := check.Run(inv, log); err != nil {
		return exitToolNotFound, err
	}

	doc, plans, err := resolveAndValidate(missionPath, templatesPath, cfg, log)
	if err != nil {
		return exitConfigError, err
	}

	pipe := buildPipeline(inv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, cancelling the run…")
		cancel()
	}()

	failFast := r.overrides.FailFast || doc.BasicConfig.FailFast
	stats, failures := mission.Run(ctx, plans, pipe, log, failFast)

	if cfg.LogRotateBytes > 0 {
		if err := log.RotateIfLarge(cfg.LogRotateBytes); err != nil {
			log.Warn("log rotation failed: %v", err)
		}
	}

	if stats.Failed > 0 {
		return exitRuntimeFailure, fmt.Errorf("mission: %d of %d title(s) failed: %v", stats.Failed, stats.Total, failures)
	}
	return exitOK, nil
}

// buildPipeline wires every §4 component into one title.Pipeline, sharing
// a single toolrun.Invoker and progress renderer across the whole batch.
func buildPipeline(inv *toolrun.Invoker) *title.Pipeline {
	prober := probe.New(inv)
	muxer := mux.New(inv, prober)
	at := audiotranscode.New(inv)
	ve := videoencode.New(inv)
	rm := remux.New(inv)

	pipe := title.New(inv, prober, muxer, at, ve, rm)
	pipe.Progress = display.NewTitleProgress()
	return pipe
}
