package cli

import (
	"context"

	model "github.com/Itish41/DocLens/models"

	"github.com/spf13/cobra"
)

// DocumentService is the ingestion pipeline used by the document commands.
type DocumentService interface {
	Upload(ctx context.Context, req model.UploadRequest) (model.UploadOutcome, error)
	AnalyzeStored(ctx context.Context, fileName string) (model.AnalysisOutcome, error)
	AnalyzeAll(ctx context.Context, concurrency int) ([]model.AnalysisOutcome, error)
	ListDocuments(ctx context.Context) ([]model.DocumentMetadata, error)
}

// SearchService is the query engine used by the search command.
type SearchService interface {
	Search(ctx context.Context, q model.SearchQuery) (*model.SearchOutcome, error)
}

var (
	documentService DocumentService
	searchService   SearchService
)

var rootCmd = &cobra.Command{
	Use:   "doclens",
	Short: "Upload, analyze and search PDF documents",
	Long: `doclens stores PDF documents, extracts their text with the configured
analysis provider and indexes them for semantic or keyword search.`,
	SilenceUsage: true,
}

// SetServices injects the services the commands run against.
func SetServices(docs DocumentService, search SearchService) {
	documentService = docs
	searchService = search
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
