package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/prophecy-cli/internal/ai"
	"github.com/KaramelBytes/prophecy-cli/internal/report"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage or inspect the model catalog used for cost estimates",
	Example: `  prophecy models show
  prophecy models sync --file ./models.json --merge
  prophecy models fetch --url https://example.com/models.json --output models.json`,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		keys := make([]string, 0, len(cat))
		for k := range cat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-32s %10s %12s %12s\n", "MODEL", "CONTEXT", "IN $/1K", "OUT $/1K")
		for _, k := range keys {
			m := cat[k]
			fmt.Fprintf(out, "%-32s %10d %12.5f %12.5f\n", k, m.ContextTokens, m.InputPerK, m.OutputPerK)
		}
		return nil
	},
}

var (
	syncPath  string
	syncMerge bool
)

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load model catalog/pricing from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		applyCatalog(m, syncMerge)
		fmt.Fprintf(cmd.OutOrStdout(), "%s model catalog from file (%d models)\n", verb(syncMerge), len(m))
		return nil
	},
}

var (
	fetchURL    string
	fetchOutput string
	fetchMerge  bool
)

var modelsFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch model catalog/pricing JSON from a URL and apply it",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := fetchURL
		if url == "" && cfg != nil {
			url = cfg.ModelsCatalogURL
		}
		if url == "" {
			return fmt.Errorf("--url is required (or set models_catalog_url)")
		}
		m, err := fetchCatalog(url)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if fetchOutput != "" {
			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal: %w", err)
			}
			if err := report.Write(fetchOutput, data); err != nil {
				return fmt.Errorf("write file: %w", err)
			}
			fmt.Fprintf(out, "Saved catalog to %s\n", fetchOutput)
		}
		applyCatalog(m, fetchMerge)
		fmt.Fprintf(out, "%s in-memory catalog with fetched catalog (%d models)\n", verb(fetchMerge), len(m))
		return nil
	},
}

func applyCatalog(m map[string]ai.ModelInfo, merge bool) {
	if merge {
		ai.MergeCatalog(m)
	} else {
		ai.OverrideCatalog(m)
	}
}

func verb(merge bool) string {
	if merge {
		return "Merged"
	}
	return "Replaced"
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
	modelsCmd.AddCommand(modelsSyncCmd)
	modelsCmd.AddCommand(modelsFetchCmd)

	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
	modelsSyncCmd.Flags().BoolVar(&syncMerge, "merge", false, "merge into existing catalog instead of replacing")

	modelsFetchCmd.Flags().StringVar(&fetchURL, "url", "", "URL to JSON catalog file (defaults to config models_catalog_url)")
	modelsFetchCmd.Flags().StringVar(&fetchOutput, "output", "", "optional path to save the fetched JSON")
	modelsFetchCmd.Flags().BoolVar(&fetchMerge, "merge", false, "merge into existing catalog instead of replacing")
}
