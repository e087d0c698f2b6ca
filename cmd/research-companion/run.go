// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-companion/internal/llm"
	"github.com/pdiddy/research-companion/internal/pipeline"
	"github.com/pdiddy/research-companion/internal/store"
	"github.com/pdiddy/research-companion/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "research-companion/0.1"
	defaultModel     = "gemini-2.0-flash-lite"
	defaultCacheDir  = "./artifacts"
)

var runCmd = &cobra.Command{
	Use:   "run <query>",
	Short: "Run the full summarization pipeline for a research question",
	Long: `Run searches arXiv for papers matching the query, downloads and extracts
their text, produces verified per-section summaries, and writes a corpus-level
report: paper summaries, a comparison table, a score-based ranking, and a
research-gap analysis. The report is archived and printed to stdout.

Without a Gemini API key (generator.api_key, the RESEARCH_COMPANION_GENERATOR_API_KEY
environment variable, or .secrets/gemini-api-key) every generation-backed stage
uses its deterministic fallback.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int("max-results", 0, "maximum number of papers to process (default 3)")
	runCmd.Flags().String("cache-dir", "", "directory for downloaded PDFs and artifacts (default ./artifacts)")
	runCmd.Flags().String("model", "", "generation model identifier")
	runCmd.Flags().Bool("yaml", false, "output the report as YAML instead of JSON")
	runCmd.Flags().Bool("no-archive", false, "skip archiving the report")

	rootCmd.AddCommand(runCmd)
}

func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.PipelineConfig{}

	cfg.Search.Timeout = defaultTimeout
	cfg.Search.UserAgent = defaultUserAgent
	cfg.Search.MaxResults = viper.GetInt("search.max_results")
	cfg.Search.MaxRetries = viper.GetInt("search.max_retries")

	cfg.Fetch.Timeout = defaultTimeout
	cfg.Fetch.UserAgent = defaultUserAgent
	cfg.Fetch.CacheDir = viper.GetString("fetch.cache_dir")
	if dir, _ := cmd.Flags().GetString("cache-dir"); dir != "" {
		cfg.Fetch.CacheDir = dir
	}
	if cfg.Fetch.CacheDir == "" {
		cfg.Fetch.CacheDir = defaultCacheDir
	}

	cfg.Generator.Model = viper.GetString("generator.model")
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Generator.Model = model
	}
	if cfg.Generator.Model == "" {
		cfg.Generator.Model = defaultModel
	}
	cfg.Generator.APIKey = secretDefault("gemini-api-key", viper.GetString("generator.api_key"))
	cfg.Generator.MaxRetries = viper.GetInt("generator.max_retries")

	cfg.Chunk.MaxTokens = viper.GetInt("chunk.max_tokens")

	cfg.Store.Dir = viper.GetString("store.dir")
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = cfg.Fetch.CacheDir
	}
	cfg.Store.MaxResults = viper.GetInt("store.max_results")

	return cfg
}

// generator picks the backend: Gemini when a key is configured, otherwise the
// disabled backend that forces every deterministic fallback.
func generator(cfg types.GeneratorConfig) llm.Generator {
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "No generation API key configured; using deterministic fallbacks.")
		return llm.Disabled{}
	}
	return &llm.GeminiBackend{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		MaxRetries: cfg.MaxRetries,
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	maxResults, _ := cmd.Flags().GetInt("max-results")

	p := pipeline.New(cfg, generator(cfg.Generator))
	p.Progress = os.Stderr

	report, err := p.Run(cmd.Context(), args[0], maxResults)
	if err != nil {
		return err
	}

	if noArchive, _ := cmd.Flags().GetBool("no-archive"); !noArchive {
		s, err := store.NewStore(cfg.Store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: opening run archive: %v\n", err)
		} else {
			defer s.Close()
			if runID, err := s.SaveReport(cmd.Context(), report); err != nil {
				fmt.Fprintf(os.Stderr, "warning: archiving report: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "Archived as run %d.\n", runID)
			}
		}
	}

	return printReport(report, cmd)
}

func printReport(report *types.Report, cmd *cobra.Command) error {
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("marshaling report: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
