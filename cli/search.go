package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	model "github.com/Itish41/DocLens/models"

	"github.com/spf13/cobra"
)

var (
	searchPageSize int
	searchPage     int
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Runs a semantic search across indexed documents. When the search
engine does not support semantic ranking, keyword ranking is used instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchPageSize, "page-size", "n", model.DefaultPageSize, "results per page")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 0, "zero based page number")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	outcome, err := searchService.Search(commandContext(cmd), model.SearchQuery{
		Query:      strings.Join(args, " "),
		PageSize:   searchPageSize,
		PageNumber: searchPage,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(outcome.Results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%d total, %s ranking):\n\n", outcome.TotalCount, outcome.Ranking)
	for i, r := range outcome.Results {
		cmd.Printf("  [%d] %s (%.2f)\n", searchPage*searchPageSize+i+1, r.Document.FileName, r.Score)
		if r.Caption != nil {
			cmd.Printf("      %s\n", *r.Caption)
		}
		cmd.Println()
	}
	return nil
}
