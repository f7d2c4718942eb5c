package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/accountdesk/enrichment/internal/config"
	"github.com/accountdesk/enrichment/internal/directory"
	"github.com/accountdesk/enrichment/internal/domain"
	"github.com/accountdesk/enrichment/internal/logger"
	"github.com/accountdesk/enrichment/internal/scheduler"
)

func newEnrichCommand() *cobra.Command {
	var (
		contactsPath string
		outPath      string
		concurrency  int
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich contacts with directory relationship data",
		Long:  `Enrich reads a contact batch from a JSON file, fetches competitor and activity data from the directory API, and writes the per-contact results. Interrupting with Ctrl-C keeps the partial results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.GetConfigPath(cfgPath))
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Scheduler.Concurrency = concurrency
			}

			level := cfg.Logging.Level
			if debug {
				level = "debug"
			}
			log, err := logger.New(logger.Config{Level: level, Development: true})
			if err != nil {
				return err
			}

			var contacts []domain.LocalContact
			if err := readJSONFile(contactsPath, &contacts); err != nil {
				return err
			}

			dir := directory.NewClient(cfg.Directory, log, nil)
			sched, err := scheduler.New(dir, cfg.Scheduler, log, nil)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			results, err := sched.Enrich(ctx, contacts, func(p domain.EnrichmentProgress) {
				log.Info("enrichment progress",
					logger.Int("processed", p.Processed),
					logger.Int("total", p.Total),
					logger.Int("errors", p.Errors),
					logger.Int64("eta_ms", p.EstimatedTimeRemainingMs),
				)
			})
			if err != nil {
				return err
			}

			renderEnrichSummary(results)

			if outPath != "" {
				data, err := json.MarshalIndent(results, "", "  ")
				if err != nil {
					return fmt.Errorf("encode results: %w", err)
				}
				if err := os.WriteFile(outPath, data, 0o600); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				fmt.Printf("results written to %s\n", outPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&contactsPath, "contacts", "", "path to the contacts JSON file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write enrichment results to this JSON file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "override scheduler concurrency")
	_ = cmd.MarkFlagRequired("contacts")

	return cmd
}

// renderEnrichSummary prints per-contact result counts on stdout.
func renderEnrichSummary(results map[string]*domain.EnrichmentResult) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Contact", "Competitors", "Activities", "Error"})

	for _, res := range results {
		t.AppendRow(table.Row{
			res.ContactID,
			len(res.Competitors),
			len(res.Activities),
			res.Error,
		})
	}
	t.Render()

	fmt.Printf("%d contacts enriched\n", len(results))
}
