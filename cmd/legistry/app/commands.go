package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/civiclens/legistry/internal/metrics"
	"github.com/civiclens/legistry/internal/reconcile"
	"github.com/civiclens/legistry/internal/snapshot"
	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/pkg/errors"
	"github.com/civiclens/legistry/pkg/legis"
	"github.com/civiclens/legistry/pkg/logging"
)

// NewImportCommand creates the import command: run one or more
// jurisdiction batches from the data directory.
func (a *App) NewImportCommand() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "import [jurisdiction...]",
		Short: "Import scraped snapshots into the canonical dataset",
		Long: `Import reconciles scraped snapshot files from the data directory into
the canonical store. With no arguments, every jurisdiction present in the
data directory is imported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			registry, err := a.Registry()
			if err != nil {
				return err
			}
			s, err := a.Store(ctx)
			if err != nil {
				return err
			}

			jurs := args
			if len(jurs) == 0 {
				jurs, err = snapshot.List(a.config.DataDir)
				if err != nil {
					return err
				}
			}
			if len(jurs) == 0 {
				return errors.NewConfigError("import", "no jurisdictions found in "+a.config.DataDir, nil)
			}

			a.serveMetrics()

			opts := []reconcile.RunnerOption{}
			if workers > 0 {
				opts = append(opts, reconcile.WithBillWorkers(workers))
			} else if a.config.BillWorkers > 0 {
				opts = append(opts, reconcile.WithBillWorkers(a.config.BillWorkers))
			}
			runner := reconcile.NewRunner(s, registry, *a.logger, opts...)

			for _, jur := range jurs {
				batch, err := snapshot.Load(a.config.DataDir, jur)
				if err != nil {
					return err
				}
				report, err := runner.Run(ctx, batch)
				if err != nil {
					return err
				}
				if err := saveReport(ctx, s, report); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent bill workers (default from config)")
	return cmd
}

// NewActivateCommand creates the activate command: run the term lifecycle
// transitions without a full import.
func (a *App) NewActivateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <jurisdiction> [term]",
		Short: "Activate legislators for a term and deactivate the rest",
		Long: `Activate marks every legislator holding an open member role in the term
as active and demotes everyone else's current roles into history. With no
term argument the jurisdiction's latest term is used.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			registry, err := a.Registry()
			if err != nil {
				return err
			}
			meta, ok := registry.Get(args[0])
			if !ok {
				return errors.NewNotFoundError("jurisdiction", args[0])
			}

			term := ""
			if len(args) == 2 {
				term = args[1]
			} else {
				latest, ok := meta.LatestTerm()
				if !ok {
					return errors.NewConfigError("jurisdictions", "no terms defined for "+meta.Abbr, nil)
				}
				term = latest.Name
			}

			s, err := a.Store(ctx)
			if err != nil {
				return err
			}
			ctx = logging.WithLogger(ctx, a.logger)
			report := reconcile.NewReport(meta.Abbr, time.Now())
			engine := reconcile.NewEngine(s, meta, report)

			if err := engine.ActivateTerm(ctx, term); err != nil {
				return err
			}
			if err := engine.DeactivateTerm(ctx, term); err != nil {
				return err
			}
			if p, ok := s.(store.Persister); ok {
				return p.Persist(ctx)
			}
			return nil
		},
	}
}

// NewReportCommand creates the report command: print the last import
// report for a jurisdiction.
func (a *App) NewReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report <jurisdiction>",
		Short: "Show the last import report for a jurisdiction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := a.Store(ctx)
			if err != nil {
				return err
			}
			doc, ok, err := s.Get(ctx, legis.KindReport, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return errors.NewNotFoundError("report", args[0])
			}
			out, err := yaml.Marshal(doc)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

// NewJurisdictionsCommand creates the jurisdictions command: list loaded
// jurisdiction metadata.
func (a *App) NewJurisdictionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "jurisdictions",
		Aliases: []string{"jur"},
		Short:   "List configured jurisdictions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := a.Registry()
			if err != nil {
				return err
			}
			for _, j := range registry.All() {
				latest := "-"
				if term, ok := j.LatestTerm(); ok {
					latest = term.Name
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-6s %-40s latest term: %s\n", j.Abbr, j.Name, latest)
			}
			return nil
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "legistry %s (commit %s, built %s)\n", a.version, a.commit, a.date)
		},
	}
}

// serveMetrics starts the Prometheus endpoint when configured. Import is a
// batch process, so the listener is best-effort and never blocks the run.
func (a *App) serveMetrics() {
	addr := a.config.MetricsAddr
	if addr == "" {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			a.logger.Warn().Err(err).Str("addr", addr).Msg("metrics endpoint failed")
		}
	}()
}

// saveReport persists the run report keyed by jurisdiction so the report
// command can show it later.
func saveReport(ctx context.Context, s store.Store, report *reconcile.Report) error {
	doc, err := store.Encode(report)
	if err != nil {
		return err
	}
	return s.Put(ctx, legis.KindReport, report.Jurisdiction, doc)
}
