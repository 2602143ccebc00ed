package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/config"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/export"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/ingestion"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/logger"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/ranking"
)

var rankCmd = &cobra.Command{
	Use:   "rank [files or directories...]",
	Short: "Extract, score and rank a batch of CVs",
	Long: `Extract, score and rank a batch of CVs.

Files and directories given as arguments are read first. Otherwise --gmail fetches the
attachments of messages matching the subject, and without either the uploads directory is read.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rank(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().String("gmail", "", "fetch CVs from Gmail messages with this subject")
	rankCmd.Flags().String("job-description", "", "job description text used for relevance scoring")
	rankCmd.Flags().String("job-description-file", "", "file holding the job description")
	rankCmd.Flags().Int("min-experience", 0, "keep candidates with at least this many years of experience")
	rankCmd.Flags().Float64("min-score", 0, "keep candidates with at least this final score")
	rankCmd.Flags().StringSlice("required-skills", nil, "keep candidates having every listed skill")
	rankCmd.Flags().String("excel", "", "write the ranking to this Excel file")
	rankCmd.Flags().String("pdf", "", "write the ranking to this PDF file")
	rankCmd.Flags().String("snapshot", "", "save the ranking as JSON for the invite command")

	viper.BindPFlag("gmail.subject", rankCmd.Flags().Lookup("gmail"))
	viper.BindPFlag("job-description", rankCmd.Flags().Lookup("job-description"))
	viper.BindPFlag("job-description-file", rankCmd.Flags().Lookup("job-description-file"))
	viper.BindPFlag("filters.min-experience", rankCmd.Flags().Lookup("min-experience"))
	viper.BindPFlag("filters.min-score", rankCmd.Flags().Lookup("min-score"))
	viper.BindPFlag("filters.required-skills", rankCmd.Flags().Lookup("required-skills"))
	viper.BindPFlag("output.excel", rankCmd.Flags().Lookup("excel"))
	viper.BindPFlag("output.pdf", rankCmd.Flags().Lookup("pdf"))
	viper.BindPFlag("output.snapshot", rankCmd.Flags().Lookup("snapshot"))
}

func rank(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting the ranking", zap.String("version", version), zap.Int("workers", cfg.Workers))

	jobDescription, err := cfg.ResolveJobDescription()
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	p.agent.SetProgressCallback(func(current, total int, message string) {
		log.Debug(message, zap.Int("current", current), zap.Int("total", total))
	})

	var snap models.Snapshot
	switch {
	case len(args) > 0:
		docs, err := loadArgs(args)
		if err != nil {
			return err
		}
		snap, err = p.agent.Process(ctx, docs, jobDescription)
		if err != nil {
			return err
		}
	case cfg.Gmail.Subject != "":
		source, err := newGmailSource(ctx, cfg.Gmail, log)
		if err != nil {
			return fmt.Errorf("connecting to gmail: %w", err)
		}
		snap, err = p.agent.IngestFromGmail(ctx, source, cfg.Gmail.Subject, jobDescription)
		if err != nil {
			return err
		}
	default:
		snap, err = p.agent.IngestFromUpload(ctx, jobDescription)
		if err != nil {
			return err
		}
	}

	filtered := ranking.Apply(snap, cfg.Filters.Options(), log.With(zap.String(logger.FieldBatch, snap.BatchID)))

	if err := writeOutputs(cfg.Output, filtered, log); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, describeBounds(ranking.ComputeBounds(snap.Records)))
	if filtered.Len() == 0 {
		fmt.Fprintln(out, "No candidates match the filters.")
		return nil
	}

	if err := export.WriteTable(out, filtered); err != nil {
		return err
	}

	best, _ := ranking.Best(filtered)
	fmt.Fprintf(out, "\nBest candidate: %s (%.2f)\n", best.DisplayName(), best.CompositeScore)
	return nil
}

// describeBounds summarizes the ranges of the whole batch, to help choose filter values
func describeBounds(b models.Bounds) string {
	skills := "none"
	if len(b.Skills) > 0 {
		skills = strings.Join(b.Skills, ", ")
	}
	return fmt.Sprintf("Batch: experience %d-%d years, score %.2f-%.2f, skills: %s",
		b.MinExperience, b.MaxExperience, b.MinScore, b.MaxScore, skills)
}

// loadArgs reads the named files and every supported file of the named directories
func loadArgs(args []string) ([]models.Document, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var inDir []string
		for _, entry := range entries {
			if !entry.IsDir() {
				inDir = append(inDir, filepath.Join(arg, entry.Name()))
			}
		}
		sort.Strings(inDir)
		paths = append(paths, inDir...)
	}

	return ingestion.LoadFiles(paths, true)
}

func writeOutputs(cfg config.OutputConfig, s models.Snapshot, log *zap.Logger) error {
	var errs []error

	if cfg.Snapshot != "" {
		if err := export.WriteSnapshot(cfg.Snapshot, s); err != nil {
			errs = append(errs, err)
		} else {
			log.Info("snapshot saved", zap.String("file", cfg.Snapshot))
		}
	}
	if cfg.Excel != "" {
		if err := export.ExportToExcel(s, cfg.Excel); err != nil {
			errs = append(errs, err)
		} else {
			log.Info("excel report saved", zap.String("file", cfg.Excel))
		}
	}
	if cfg.PDF != "" {
		if err := export.ExportToPDF(s, cfg.PDF); err != nil {
			errs = append(errs, err)
		} else {
			log.Info("pdf report saved", zap.String("file", cfg.PDF))
		}
	}

	return errors.Join(errs...)
}
