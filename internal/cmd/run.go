package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MrJJimenez/applycli/internal/config"
	"github.com/MrJJimenez/applycli/internal/executor"
	"github.com/MrJJimenez/applycli/internal/models"
	"github.com/MrJJimenez/applycli/internal/network"
	"github.com/MrJJimenez/applycli/internal/portal/naukri"
	"github.com/MrJJimenez/applycli/internal/report"
	"github.com/MrJJimenez/applycli/internal/runner"
	"github.com/MrJJimenez/applycli/internal/store"
	"github.com/robfig/cron/v3"
)

type RunCmd struct {
	Queries         string `help:"Comma-separated search queries (overrides config)."`
	Locations       string `help:"Comma-separated locations (overrides config)."`
	MaxApplications int    `help:"Cap on applications this run (overrides config)." default:"-1"`
	Delay           int    `help:"Seconds to pause after each application (overrides config)." default:"-1"`
	Backoff         int    `help:"Seconds between retry attempts." default:"5"`
	DryRun          bool   `help:"Observe and classify without applying or writing the store."`
	Schedule        string `help:"Cron expression; keep running on this cadence until interrupted."`
	Store           string `help:"Path to the job-record database." env:"APPLYCLI_STORE"`
	Output          string `name:"output" short:"o" help:"Report output directory (overrides config)."`
	Proxies         string `help:"Comma-separated proxy URLs." env:"APPLYCLI_PROXIES"`
}

func (r *RunCmd) Run(ctx *Context) error {
	cfg := r.mergeConfig(ctx.Config)
	runCfg := cfg.RunConfig()
	if len(runCfg.SearchQueries) == 0 {
		return fmt.Errorf("at least one search query is required")
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	storePath := strings.TrimSpace(r.Store)
	if storePath == "" {
		storePath, err = config.StorePath()
		if err != nil {
			return err
		}
	}
	records, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer records.Close()

	proxies := splitCSV(r.Proxies)
	if len(proxies) == 0 {
		proxies = cfg.Proxies
	}
	var rotator *network.Rotator
	if len(proxies) > 0 {
		rotator, err = network.NewRotator(proxies, 10*time.Minute)
		if err != nil {
			return err
		}
	}
	httpClient, err := network.NewClient(rotator)
	if err != nil {
		return err
	}
	client := naukri.NewClient(httpClient, creds, ctx.Logger)

	exec := executor.New(client,
		executor.WithBackoff(time.Duration(r.Backoff)*time.Second),
		executor.WithLogger(ctx.Logger),
	)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doRun := func(runCtx context.Context) error {
		return r.runOnce(runCtx, ctx, cfg, runCfg, records, client, exec)
	}

	if strings.TrimSpace(r.Schedule) != "" {
		return r.runScheduled(signalCtx, ctx, doRun)
	}
	return doRun(signalCtx)
}

// runOnce executes one full cycle and always flushes report artifacts, even
// when the run aborted part-way.
func (r *RunCmd) runOnce(runCtx context.Context, ctx *Context, cfg config.Config, runCfg models.RunConfig, records *store.Store, client *naukri.Client, exec *executor.Executor) error {
	if err := client.Login(runCtx); err != nil {
		return err
	}

	run := runner.New(runCfg, cfg.Profile, records, client, client, exec,
		runner.WithLogger(ctx.Logger),
		runner.WithDryRun(r.DryRun),
	)
	result, runErr := run.Run(runCtx)

	outputDir := strings.TrimSpace(r.Output)
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	runDir, reportErr := report.WriteRun(outputDir, result)
	if reportErr == nil {
		printRunSummary(ctx, result, runDir)
	}

	return errors.Join(runErr, reportErr)
}

func (r *RunCmd) runScheduled(signalCtx context.Context, ctx *Context, doRun func(context.Context) error) error {
	if _, err := cron.ParseStandard(r.Schedule); err != nil {
		return fmt.Errorf("invalid --schedule %q: %w", r.Schedule, err)
	}

	// First run fires immediately; the cron keeps the cadence afterwards.
	if err := doRun(signalCtx); err != nil {
		ctx.UI.Warnf("run failed: %v", err)
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(r.Schedule, func() {
		if err := doRun(signalCtx); err != nil {
			ctx.UI.Warnf("scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	scheduler.Start()
	<-signalCtx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	return nil
}

// mergeConfig applies flag overrides onto the loaded config snapshot.
func (r *RunCmd) mergeConfig(cfg config.Config) config.Config {
	if queries := splitCSV(r.Queries); len(queries) > 0 {
		cfg.SearchQueries = queries
	}
	if locations := splitCSV(r.Locations); len(locations) > 0 {
		cfg.Locations = locations
	}
	if r.MaxApplications >= 0 {
		cfg.MaxApplicationsPerRun = r.MaxApplications
	}
	if r.Delay >= 0 {
		cfg.DelayBetweenApplications = r.Delay
	}
	return cfg
}

func printRunSummary(ctx *Context, result runner.Result, runDir string) {
	s := result.Summary
	line := fmt.Sprintf(
		"summary: candidates=%d observed=%d applied=%d shortlisted=%d skipped=%d failed=%d reports=%s",
		s.Candidates, s.Observed, s.Applied, s.Shortlisted, s.Skipped, s.Failed, runDir,
	)
	if s.Aborted {
		line += " (aborted: " + s.AbortReason + ")"
	}
	if ctx.Err != nil {
		fmt.Fprintln(ctx.Err, line)
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
