package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadradar/leadradar-cli/internal/export"
	"github.com/leadradar/leadradar-cli/internal/model"
	"github.com/leadradar/leadradar-cli/internal/pipeline"
)

var (
	huntCategory string
	huntLocation string
	huntNoEnrich bool
	huntExport   []string
	huntTop      int
	huntTimeout  time.Duration
)

var huntCmd = &cobra.Command{
	Use:   "hunt",
	Short: "Run a lead hunt for a category in a municipality",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if huntTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, huntTimeout)
			defer cancel()
		}

		store, err := newCacheStore(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "init cache store")
		}
		defer store.Close()

		p := newPipeline(cfg, store)

		leads, err := p.Run(ctx, pipeline.Request{
			Category: huntCategory,
			Location: huntLocation,
			Enrich:   !huntNoEnrich,
		})
		if err != nil {
			return eris.Wrap(err, "lead hunt failed (the geodata services may be busy, retry later)")
		}

		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "no leads found, try a different category or location spelling")
			return json.NewEncoder(os.Stdout).Encode([]model.Lead{})
		}

		// Display order: best first.
		sort.SliceStable(leads, func(i, j int) bool { return leads[i].Score > leads[j].Score })
		if huntTop > 0 && huntTop < len(leads) {
			leads = leads[:huntTop]
		}

		if len(huntExport) > 0 {
			if err := exportLeads(leads); err != nil {
				return err
			}
		}

		zap.L().Info("hunt complete",
			zap.String("category", huntCategory),
			zap.String("location", huntLocation),
			zap.Int("leads", len(leads)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(leads)
	},
}

func exportLeads(leads []model.Lead) error {
	w, err := export.NewWriter(cfg.Export.Dir)
	if err != nil {
		return eris.Wrap(err, "init export writer")
	}
	runID := export.NewRunID()
	for _, format := range huntExport {
		var path string
		var err error
		switch format {
		case "csv":
			path, err = w.WriteCSV(leads, huntCategory, huntLocation, runID)
		case "json":
			path, err = w.WriteJSON(leads, huntCategory, huntLocation, runID)
		case "xlsx":
			path, err = w.WriteXLSX(leads, huntCategory, huntLocation, runID)
		default:
			return eris.Errorf("unknown export format %q (want csv, json or xlsx)", format)
		}
		if err != nil {
			return eris.Wrapf(err, "export %s", format)
		}
		fmt.Fprintf(os.Stderr, "exported %s\n", path)
	}
	return nil
}

func init() {
	huntCmd.Flags().StringVar(&huntCategory, "category", "", "business category, e.g. shk (required)")
	huntCmd.Flags().StringVar(&huntLocation, "location", "", "town or municipality name (required)")
	huntCmd.Flags().BoolVar(&huntNoEnrich, "no-enrich", false, "skip website enrichment")
	huntCmd.Flags().StringSliceVar(&huntExport, "export", nil, "export formats: csv, xlsx, json")
	huntCmd.Flags().IntVar(&huntTop, "top", 0, "keep only the N best-scoring leads")
	huntCmd.Flags().DurationVar(&huntTimeout, "timeout", 2*time.Minute, "overall deadline for the hunt")
	_ = huntCmd.MarkFlagRequired("category")
	_ = huntCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(huntCmd)
}
