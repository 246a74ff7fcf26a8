package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kitaoji/hensachi/internal/adapters/identity"
	"github.com/kitaoji/hensachi/internal/adapters/statsapi"
	app "github.com/kitaoji/hensachi/internal/app"
	"github.com/kitaoji/hensachi/internal/config"
	"github.com/kitaoji/hensachi/internal/domain/insight"
	"github.com/kitaoji/hensachi/internal/domain/model"
	"github.com/kitaoji/hensachi/internal/domain/subject"
	"github.com/kitaoji/hensachi/internal/domain/timeline"
	"github.com/kitaoji/hensachi/internal/render"
	"github.com/kitaoji/hensachi/internal/selection"
	"github.com/kitaoji/hensachi/pkg/logger"
	"github.com/kitaoji/hensachi/pkg/metrics"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args); err != nil {
		logger.Get().Error(ctx, "command failed", logger.Error(err))
		os.Exit(1)
	}
}

// env bundles everything a command needs.
type env struct {
	cfg     *config.Config
	client  *statsapi.Client
	ids     *identity.Store
	binding *selection.Binding
	view    *app.View
}

func run(ctx context.Context, args []string) error {
	cliApp := &cli.App{
		Name:  "hensachi",
		Usage: "standardized scores for rank ladders, dataset metrics, and your own numbers",
		Commands: []*cli.Command{
			rankCommand(),
			datasetsCommand(),
			metricsCommand(),
			metricCommand(),
			submitCommand(),
			scoreCommand(),
			historyCommand(),
			whoamiCommand(),
		},
	}
	return cliApp.RunContext(ctx, args)
}

func setup(ctx context.Context) (*env, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Optional Prometheus listener for long-running invocations.
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Get().Warn(ctx, "metrics listener failed", logger.Error(err))
			}
		}()
	}

	client := statsapi.New(cfg.APIBase,
		statsapi.WithTimeout(time.Duration(cfg.TimeoutMS)*time.Millisecond),
	)

	ids := identity.NewStore(identity.WithPath(cfg.IdentityPath))

	def := subject.Default()
	if s, err := subject.Parse(cfg.DefaultSubject); err == nil {
		def = s
	}
	binding := selection.NewBinding(selectionLocation(cfg), def)

	view := app.NewView(client, ids, app.WithHistoryLimit(cfg.HistoryLimit))

	return &env{cfg: cfg, client: client, ids: ids, binding: binding, view: view}, nil
}

func selectionLocation(cfg *config.Config) selection.Location {
	path := cfg.SelectionPath
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return selection.NewMemLocation("")
		}
		path = filepath.Join(dir, "hensachi", "selection")
	}
	return selection.NewFileLocation(path)
}

func rankCommand() *cli.Command {
	return &cli.Command{
		Name:      "rank",
		Usage:     "show the standardized score for a ladder tier",
		ArgsUsage: "[code]",
		Action: func(c *cli.Context) error {
			e, err := setup(c.Context)
			if err != nil {
				return err
			}

			subj := e.binding.Current()
			if code := c.Args().First(); code != "" {
				subj = subject.NewRank(code)
				e.binding.Select(subj)
			} else if subj.Kind != subject.KindRank {
				subj = subject.Default()
				e.binding.Select(subj)
			}

			if err := e.view.Fetch(c.Context, subj); err != nil {
				return printFailure(e.view)
			}
			st := e.view.Snapshot()
			res := st.Result

			fmt.Printf("%s (%s)\n", subject.RankLabel(subj.RankCode), subj.RankCode)
			fmt.Printf("hensachi: %s\n", model.FormatHeadline(res.Score))
			fmt.Printf("%s\n", insight.FromResult(res))
			if res.TopPercent != nil {
				fmt.Printf("top:    %s%%\n", model.FormatPercent(*res.TopPercent))
			}
			if res.BottomPercent != nil {
				fmt.Printf("bottom: %s%%\n", model.FormatPercent(*res.BottomPercent))
			}
			fmt.Printf("share: %s\n", selection.ShareURL(e.cfg.ShareBase, subj))
			return nil
		},
	}
}

func datasetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "datasets",
		Usage: "list available datasets",
		Action: func(c *cli.Context) error {
			e, err := setup(c.Context)
			if err != nil {
				return err
			}
			sets, err := e.client.Datasets(c.Context)
			if err != nil {
				return err
			}
			for _, d := range sets {
				fmt.Printf("%-24s %s: %s\n", d.Slug, d.Name, d.Description)
			}
			return nil
		},
	}
}

func metricsCommand() *cli.Command {
	return &cli.Command{
		Name:      "metrics",
		Usage:     "list metrics of a dataset",
		ArgsUsage: "<dataset>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: hensachi metrics <dataset>", 2)
			}
			e, err := setup(c.Context)
			if err != nil {
				return err
			}
			infos, err := e.client.Metrics(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			for _, m := range infos {
				fmt.Printf("%-24s %s (%s)\n", m.Key, m.Name, m.Unit)
			}
			return nil
		},
	}
}

func metricCommand() *cli.Command {
	return &cli.Command{
		Name:      "metric",
		Usage:     "show the scored table for a dataset metric",
		ArgsUsage: "<dataset> <key>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: hensachi metric <dataset> <key>", 2)
			}
			e, err := setup(c.Context)
			if err != nil {
				return err
			}

			subj := subject.NewDatasetMetric(c.Args().Get(0), c.Args().Get(1))
			e.binding.Select(subj)

			if err := e.view.Fetch(c.Context, subj); err != nil {
				return printFailure(e.view)
			}
			table := e.view.Snapshot().Table

			fmt.Printf("%s / %s  n=%d mean=%s std=%s unit=%s\n",
				table.Dataset, table.Metric, table.SampleCount,
				model.FormatScore(table.Mean), model.FormatScore(table.StdDev), table.Unit)
			for i, row := range table.Rows {
				fmt.Printf("%3d. %-24s %12s %8s\n",
					i+1, row.ItemName, model.FormatScore(row.Value), model.FormatScore(row.Score))
			}
			fmt.Printf("share: %s\n", selection.ShareURL(e.cfg.ShareBase, subj))
			return nil
		},
	}
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "record a value for a user metric and show its score",
		ArgsUsage: "<slug> <value>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "chart", Usage: "write the history chart PNG to this path"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: hensachi submit <slug> <value>", 2)
			}
			e, err := setup(c.Context)
			if err != nil {
				return err
			}

			value, err := strconv.ParseFloat(c.Args().Get(1), 64)
			if err != nil {
				return cli.Exit("value must be a number", 2)
			}

			subj := subject.NewUserMetric(c.Args().Get(0))
			e.binding.Select(subj)
			if err := e.view.Fetch(c.Context, subj); err != nil {
				return printFailure(e.view)
			}

			if err := e.view.Submit(c.Context, value); err != nil {
				return printFailure(e.view)
			}
			printUserResult(e.view.Snapshot().Result)

			// The trailing refresh is asynchronous; a synchronous pass
			// gives the freshest window before rendering.
			if err := e.view.RefreshHistory(c.Context); err != nil {
				logger.Get().Warn(c.Context, "history refresh failed", logger.Error(err))
			}
			printHistory(e.view.Snapshot().Window, c.String("chart"), subj.UserSlug)
			fmt.Printf("share: %s\n", selection.ShareURL(e.cfg.ShareBase, subj))
			return nil
		},
	}
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "score",
		Usage:     "compute the score for a value without recording it",
		ArgsUsage: "<slug> <value>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("usage: hensachi score <slug> <value>", 2)
			}
			e, err := setup(c.Context)
			if err != nil {
				return err
			}

			value, err := strconv.ParseFloat(c.Args().Get(1), 64)
			if err != nil {
				return cli.Exit("value must be a number", 2)
			}

			subj := subject.NewUserMetric(c.Args().Get(0))
			e.binding.Select(subj)
			if err := e.view.Fetch(c.Context, subj); err != nil {
				return printFailure(e.view)
			}
			if err := e.view.Recompute(c.Context, value); err != nil {
				return printFailure(e.view)
			}
			printUserResult(e.view.Snapshot().Result)
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "show the recent submissions for a user metric",
		ArgsUsage: "<slug>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "chart", Usage: "write the history chart PNG to this path"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: hensachi history <slug>", 2)
			}
			e, err := setup(c.Context)
			if err != nil {
				return err
			}

			subj := subject.NewUserMetric(c.Args().First())
			e.binding.Select(subj)
			if err := e.view.Fetch(c.Context, subj); err != nil {
				return printFailure(e.view)
			}
			printHistory(e.view.Snapshot().Window, c.String("chart"), subj.UserSlug)
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "print the anonymous identity attributing your submissions",
		Action: func(c *cli.Context) error {
			e, err := setup(c.Context)
			if err != nil {
				return err
			}
			fmt.Println(e.ids.GetOrCreate(c.Context))
			return nil
		},
	}
}

func printUserResult(res *model.ScoreResult) {
	if res == nil {
		return
	}
	fmt.Printf("value:    %s %s\n", model.FormatScore(res.Value), res.Unit)
	fmt.Printf("hensachi: %s (mean %s, std %s, n=%d)\n",
		model.FormatHeadline(res.Score),
		model.FormatScore(res.Mean), model.FormatScore(res.StdDev), res.SampleCount)
	if res.Diff != nil {
		fmt.Printf("diff:     %s\n", model.FormatScore(*res.Diff))
	}
	if res.RankPosition != nil {
		fmt.Printf("rank:     #%d\n", *res.RankPosition)
	}
	if res.TopPercent != nil || res.BottomPercent != nil {
		fmt.Printf("%s\n", insight.FromResult(res))
	}
}

func printHistory(window model.HistoryWindow, chartPath, slug string) {
	points := timeline.ChartSeries(window)

	if len(window) == 0 {
		fmt.Println("no history yet")
		return
	}
	fmt.Printf("recent %d:\n", len(window))
	for _, p := range points {
		fmt.Printf("  %-18s %s\n", p.Label, model.FormatScore(p.Value))
	}

	if chartPath == "" {
		return
	}
	if len(points) < timeline.MinPlotPoints {
		fmt.Println("need at least 2 numeric points to draw a chart")
		return
	}
	f, err := os.Create(chartPath)
	if err != nil {
		fmt.Printf("cannot write chart: %v\n", err)
		return
	}
	defer f.Close()
	if err := render.WritePNG(f, slug, points); err != nil {
		fmt.Printf("cannot render chart: %v\n", err)
		return
	}
	fmt.Printf("chart written to %s\n", chartPath)
}

func printFailure(v *app.View) error {
	st := v.Snapshot()
	if st.Err == "" {
		return fmt.Errorf("request failed")
	}
	return fmt.Errorf("%s", st.Err)
}
