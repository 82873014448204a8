package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"papercast/internal/app"
	"papercast/pkg/config"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "papercast",
	Short: "Turn research papers into graphical abstracts and podcasts",
	Long: `Papercast reads a research paper PDF and produces either a graphical
abstract (Mermaid workflow diagram and SVG summary) or a two-speaker podcast.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config.yaml (default $PAPERCAST_CONFIG or ./config.yaml)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLogger()
	}
}

func Execute() error {
	return rootCmd.Execute()
}

func setupLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(ctx, configPath)
	}
	return config.Load(ctx)
}

func buildService(ctx context.Context) (*app.Service, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return app.BuildService(ctx, cfg)
}

func readPDF(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}

func printNotices(notices []app.Notice) {
	for _, n := range notices {
		switch n.Level {
		case app.NoticeError:
			fmt.Println(errorStyle.Render("✗ " + n.Message))
		case app.NoticeWarning:
			fmt.Println(warnStyle.Render("! " + n.Message))
		default:
			fmt.Println(infoStyle.Render("• " + n.Message))
		}
	}
}

func printArtifacts(artifacts map[string]string, order ...string) {
	for _, name := range order {
		if location, ok := artifacts[name]; ok {
			fmt.Printf("  %-24s %s\n", name, location)
		}
	}
}
