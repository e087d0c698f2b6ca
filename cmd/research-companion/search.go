// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-companion/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search arXiv for candidate papers without running the pipeline",
	Long: `Search queries the arXiv API for papers matching the query and prints the
re-ranked candidates. Useful for previewing what a run would process.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", 3, "maximum number of results to return")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	maxResults, _ := cmd.Flags().GetInt("max-results")

	client := search.NewArxiv(cfg.Search)
	papers, err := client.Search(cmd.Context(), args[0], maxResults)
	if err != nil {
		return fmt.Errorf("searching arXiv: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(papers)
	}

	for i, p := range papers {
		fmt.Printf("%d. %s\n", i+1, p.Title)
		fmt.Printf("   id: %s\n", p.ID)
		if len(p.Authors) > 0 {
			fmt.Printf("   authors: %s", p.Authors[0])
			if len(p.Authors) > 1 {
				fmt.Printf(" et al.")
			}
			fmt.Println()
		}
		if p.Published != "" {
			fmt.Printf("   published: %s\n", p.Published)
		}
	}
	return nil
}
