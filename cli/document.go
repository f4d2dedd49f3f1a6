package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	model "github.com/Itish41/DocLens/models"

	"github.com/spf13/cobra"
)

var (
	uploadAnalyze      bool
	analyzeConcurrency int
)

var uploadCmd = &cobra.Command{
	Use:   "upload [path]",
	Short: "Upload a PDF document",
	Long: `Stores a local PDF under a unique name. With --analyze the document is
analyzed and indexed right after the upload.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file-name]",
	Short: "Analyze and index a stored document",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var analyzeAllCmd = &cobra.Command{
	Use:   "analyze-all",
	Short: "Analyze and index every stored document",
	Args:  cobra.NoArgs,
	RunE:  runAnalyzeAll,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadAnalyze, "analyze", false, "analyze and index after uploading")
	analyzeAllCmd.Flags().IntVarP(&analyzeConcurrency, "concurrency", "c", 4, "documents analyzed in parallel")
	rootCmd.AddCommand(uploadCmd, listCmd, analyzeCmd, analyzeAllCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	ctx := commandContext(cmd)
	outcome, err := documentService.Upload(ctx, model.UploadRequest{
		FileName:    filepath.Base(args[0]),
		ContentType: http.DetectContentType(data),
		Data:        data,
	})
	if err != nil {
		return fmt.Errorf("upload failed: %s", outcome.Message)
	}
	cmd.Printf("Uploaded %s\n", outcome.FileName)
	cmd.Printf("  URL: %s\n", outcome.FileURL)

	if !uploadAnalyze {
		return nil
	}
	return printAnalysis(cmd, outcomeOf(documentService.AnalyzeStored(ctx, outcome.FileName)))
}

func runList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.ListDocuments(commandContext(cmd))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		cmd.Println("No documents stored.")
		return nil
	}

	for _, d := range docs {
		modified := "-"
		if d.LastModified != nil {
			modified = d.LastModified.Format("2006-01-02 15:04")
		}
		cmd.Printf("  %-60s %10d  %s\n", d.Name, d.Size, modified)
	}
	cmd.Printf("\n%d document(s)\n", len(docs))
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	return printAnalysis(cmd, outcomeOf(documentService.AnalyzeStored(commandContext(cmd), args[0])))
}

func runAnalyzeAll(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	outcomes, err := documentService.AnalyzeAll(commandContext(cmd), analyzeConcurrency)
	if err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		status := "ok"
		if !o.Success {
			status = "FAILED"
			failed++
		}
		cmd.Printf("  [%s] %s: %s\n", status, o.FileName, o.Message)
	}
	cmd.Printf("\n%d analyzed, %d failed\n", len(outcomes)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d document(s) failed", failed)
	}
	return nil
}

type analysisResult struct {
	outcome model.AnalysisOutcome
	err     error
}

func outcomeOf(o model.AnalysisOutcome, err error) analysisResult {
	return analysisResult{outcome: o, err: err}
}

func printAnalysis(cmd *cobra.Command, r analysisResult) error {
	if r.err != nil {
		return fmt.Errorf("analysis of %s failed: %s", r.outcome.FileName, r.outcome.Message)
	}
	cmd.Printf("Analyzed %s\n", r.outcome.FileName)
	if r.outcome.Document != nil {
		cmd.Printf("  Extracted %d characters\n", len(r.outcome.Document.Content))
	}
	return nil
}
