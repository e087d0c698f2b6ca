// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-companion/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List and inspect archived pipeline runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the full archived report for a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsSearchCmd = &cobra.Command{
	Use:   "search <terms>",
	Short: "Full-text search across archived paper summaries",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsSearch,
}

func init() {
	runsCmd.Flags().Int("limit", 0, "maximum number of runs to list (default 20)")
	runsSearchCmd.Flags().Int("max-results", 0, "maximum number of matches (default 20)")

	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsSearchCmd)
	rootCmd.AddCommand(runsCmd)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg := pipelineConfig(cmd)
	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening run archive: %w", err)
	}
	return s, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := s.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%4d  %s  %2d papers  %6.2fs  %s\n",
			r.ID, r.CreatedAt, r.NumPapers, r.RuntimeSeconds, r.Query)
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q", args[0])
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.GetReport(cmd.Context(), runID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func runRunsSearch(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	maxResults, _ := cmd.Flags().GetInt("max-results")
	hits, err := s.Search(cmd.Context(), args[0], maxResults)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, h := range hits {
		fmt.Printf("run %d (%s)\n", h.RunID, h.RunQuery)
		fmt.Printf("  %s\n", h.Title)
		if h.Summary.OverallProblem != "" {
			fmt.Printf("  problem: %s\n", h.Summary.OverallProblem)
		}
		if len(h.Summary.OverallMethods) > 0 {
			fmt.Printf("  methods: %v\n", h.Summary.OverallMethods)
		}
	}
	return nil
}
