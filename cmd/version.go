package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/barnhand/barnhand/internal/config"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("Barnhand %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Configuration: unavailable (%v)\n", err)
		return nil
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Provider: %s\n", cfg.Provider)
	fmt.Printf("  Model: %s\n", cfg.ModelName)
	fmt.Printf("  Embedder: %s\n", cfg.EmbedderModel)
	fmt.Printf("  Listen address: %s\n", cfg.ListenAddr)
	if cfg.LivestockConfigured() {
		fmt.Printf("  Livestock database: %s/%s\n", cfg.LivestockHost, cfg.LivestockDBName)
	} else {
		fmt.Println("  Livestock database: not configured")
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		fmt.Println("  GEMINI_API_KEY: not set")
		fmt.Println()
		fmt.Println("Hint: set GEMINI_API_KEY or use provider vertexai")
		fmt.Println("  export GEMINI_API_KEY=your-api-key")
	} else if len(geminiKey) > 8 {
		fmt.Printf("  GEMINI_API_KEY: %s...%s (configured)\n",
			geminiKey[:4], geminiKey[len(geminiKey)-4:])
	} else {
		fmt.Println("  GEMINI_API_KEY: configured")
	}

	return nil
}
