package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-transcript-api/internal/dto"
)

func newCalculateCmd() *cobra.Command {
	var studentID, userID string
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate and store one student's final transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(commandContext(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.transcripts.CalculateFinalTranscript(commandContext(cmd), studentID, userID)
			if err != nil {
				return err
			}
			return printJSON(cmd, doc)
		},
	}
	cmd.Flags().StringVar(&studentID, "student", "", "student id")
	cmd.Flags().StringVar(&userID, "user", "", "id recorded as the initiating user")
	_ = cmd.MarkFlagRequired("student")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newRecalculateAllCmd() *cobra.Command {
	var (
		userID      string
		concurrency int
		students    []string
	)
	cmd := &cobra.Command{
		Use:   "recalculate-all",
		Short: "Recalculate transcripts for every student with results",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(commandContext(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.transcripts.RecalculateStudents(commandContext(cmd), dto.RecalculateTranscriptsRequest{
				StudentIDs:  students,
				Concurrency: concurrency,
			}, userID)
			if err != nil {
				return err
			}
			if result.Errored > 0 {
				a.logger.Warn("some transcripts were not recalculated", zap.Int("errored", result.Errored))
			}
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "id recorded as the initiating user")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel calculations (defaults to TRANSCRIPT_BATCH_CONCURRENCY)")
	cmd.Flags().StringSliceVar(&students, "student", nil, "restrict to these student ids")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
