package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-transcript-api/internal/models"
	"github.com/noah-isme/sma-transcript-api/pkg/storage"
)

func newExportCmd() *cobra.Command {
	var studentID, format, dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a student's stored transcript to a CSV or PDF file",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewLocalStorage(dir)
			if err != nil {
				return err
			}
			a, err := bootstrap(commandContext(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			file, err := a.transcripts.ExportTranscript(commandContext(cmd), studentID, models.ExportFormat(format))
			if err != nil {
				return err
			}
			path, err := store.Save(file.Filename, file.Content)
			if err != nil {
				return err
			}
			a.logger.Info("transcript exported", zap.String("student_id", studentID), zap.String("path", path))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	cmd.Flags().StringVar(&studentID, "student", "", "student id")
	cmd.Flags().StringVar(&format, "format", string(models.ExportFormatCSV), "csv or pdf")
	cmd.Flags().StringVar(&dir, "dir", "./exports", "output directory")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}
