package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/sketchmatch/internal/adapters/prompts"
	"github.com/okian/sketchmatch/internal/domain/scoring"
	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// ErrDrawingIndex is returned when --ref-index or --cand-index is out of range.
var ErrDrawingIndex = errors.New("drawing index out of range")

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a candidate drawing against a reference",
		Long: "Score a candidate drawing against a reference and print the breakdown as JSON.\n" +
			"A file holds one drawing, a JSON array of drawings, or QuickDraw ndjson; " +
			"the index flags pick from the latter two.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			refPath, _ := cmd.Flags().GetString("reference")
			candPath, _ := cmd.Flags().GetString("candidate")
			refIndex, _ := cmd.Flags().GetInt("ref-index")
			candIndex, _ := cmd.Flags().GetInt("cand-index")

			ctx := cmd.Context()
			ref, err := readDrawing(ctx, refPath, refIndex)
			if err != nil {
				return fmt.Errorf("reference: %w", err)
			}
			cand, err := readDrawing(ctx, candPath, candIndex)
			if err != nil {
				return fmt.Errorf("candidate: %w", err)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			bd, err := scoring.NewEngine(scoring.WithConfig(cfg.Scoring())).Similarity(ref, cand)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(bd)
		},
	}
	cmd.Flags().String("reference", "", "Reference drawing file")
	cmd.Flags().String("candidate", "", "Candidate drawing file")
	cmd.Flags().Int("ref-index", 0, "Index of the reference in a multi-drawing file")
	cmd.Flags().Int("cand-index", 0, "Index of the candidate in a multi-drawing file")
	cmd.Flags().String("config", "", "YAML config file with engine settings")
	_ = cmd.MarkFlagRequired("reference")
	_ = cmd.MarkFlagRequired("candidate")
	return cmd
}

// readDrawing loads a single drawing file, or the index-th drawing of a
// drawings array or QuickDraw export.
func readDrawing(ctx context.Context, path string, index int) (sketch.Drawing, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".ndjson" && ext != ".jsonl" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, err
		}
		var d sketch.Drawing
		if json.Unmarshal(data, &d) == nil {
			if index != 0 {
				return nil, fmt.Errorf("%w: %d, file holds one drawing", ErrDrawingIndex, index)
			}
			return d, d.Validate()
		}
	}

	ps, err := prompts.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ps) {
		return nil, fmt.Errorf("%w: %d of %d", ErrDrawingIndex, index, len(ps))
	}
	return ps[index].Drawing, nil
}
