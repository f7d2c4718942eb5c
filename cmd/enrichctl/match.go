package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/accountdesk/enrichment/internal/config"
	"github.com/accountdesk/enrichment/internal/domain"
	"github.com/accountdesk/enrichment/internal/matcher"
)

// readJSONFile decodes one JSON file into out.
func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func newMatchCommand() *cobra.Command {
	var (
		contactsPath   string
		candidatesPath string
		outPath        string
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match local contacts against a directory export",
		Long:  `Match reads a contact batch and a directory export from JSON files, scores every pairing, and prints a match report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.GetConfigPath(cfgPath))
			if err != nil {
				return err
			}

			var contacts []domain.LocalContact
			if err := readJSONFile(contactsPath, &contacts); err != nil {
				return err
			}
			var candidates []domain.DirectoryRecord
			if err := readJSONFile(candidatesPath, &candidates); err != nil {
				return err
			}

			m := matcher.New(cfg.Matching)
			report := m.GenerateReport(contacts, candidates)
			renderReport(report)

			if outPath != "" {
				best := m.BestMatches(contacts, candidates)
				data, err := json.MarshalIndent(best, "", "  ")
				if err != nil {
					return fmt.Errorf("encode matches: %w", err)
				}
				if err := os.WriteFile(outPath, data, 0o600); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				fmt.Printf("best matches written to %s\n", outPath)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&contactsPath, "contacts", "", "path to the contacts JSON file")
	cmd.Flags().StringVar(&candidatesPath, "candidates", "", "path to the directory export JSON file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write best matches to this JSON file")
	_ = cmd.MarkFlagRequired("contacts")
	_ = cmd.MarkFlagRequired("candidates")

	return cmd
}

// renderReport prints the match report as tables on stdout.
func renderReport(report matcher.Report) {
	summary := table.NewWriter()
	summary.SetOutputMirror(os.Stdout)
	summary.SetStyle(table.StyleLight)
	summary.AppendHeader(table.Row{"Total", "Matched", "Match Rate", "Low Confidence", "Unmatched"})
	summary.AppendRow(table.Row{
		report.TotalContacts,
		report.MatchedContacts,
		fmt.Sprintf("%.1f%%", report.MatchRate*100),
		len(report.LowConfidenceMatches),
		len(report.UnmatchedContacts),
	})
	summary.Render()

	if len(report.MatchesByType) > 0 {
		byType := table.NewWriter()
		byType.SetOutputMirror(os.Stdout)
		byType.SetStyle(table.StyleLight)
		byType.AppendHeader(table.Row{"Match Type", "Count"})
		for _, mt := range []matcher.MatchType{
			matcher.MatchTypeEmail,
			matcher.MatchTypeNameCompany,
			matcher.MatchTypeNameTitle,
			matcher.MatchTypeFuzzy,
		} {
			if count := report.MatchesByType[mt]; count > 0 {
				byType.AppendRow(table.Row{string(mt), count})
			}
		}
		byType.Render()
	}

	if len(report.LowConfidenceMatches) > 0 {
		low := table.NewWriter()
		low.SetOutputMirror(os.Stdout)
		low.SetStyle(table.StyleLight)
		low.AppendHeader(table.Row{"Contact", "Candidate", "Confidence", "Type"})
		for _, m := range report.LowConfidenceMatches {
			low.AppendRow(table.Row{
				m.Contact.FullName(),
				m.Record.Name,
				fmt.Sprintf("%.3f", m.Confidence),
				string(m.MatchType),
			})
		}
		low.Render()
	}
}
