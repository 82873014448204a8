package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"papercast/internal/app"
)

var (
	podcastRemark string
	podcastAsk    bool
	podcastOutDir string
)

var podcastCmd = &cobra.Command{
	Use:   "podcast <paper.pdf>",
	Short: "Generate a two-speaker podcast about a paper",
	Long: `Read a paper up to its reference list, have the language model write a
Host/Guest conversation about it, voice every line and join the segments
into one MP3.`,
	Args: cobra.ExactArgs(1),
	RunE: runPodcast,
}

func init() {
	podcastCmd.Flags().StringVarP(&podcastRemark, "remark", "r", "", "Extra instruction for the script, e.g. \"focus on the results\"")
	podcastCmd.Flags().BoolVar(&podcastAsk, "ask", false, "Prompt for the remark interactively")
	podcastCmd.Flags().StringVarP(&podcastOutDir, "out", "o", "", "Output directory (overrides output.dir)")
	rootCmd.AddCommand(podcastCmd)
}

func runPodcast(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := readPDF(args[0])
	if err != nil {
		return err
	}

	if podcastAsk {
		if err := huh.NewText().
			Title("Remarks for the podcast").
			Description("Optional: audience, focus, tone. Leave empty to skip.").
			CharLimit(2000).
			Value(&podcastRemark).
			Run(); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if podcastOutDir != "" {
		cfg.Output.Dir = podcastOutDir
	}

	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	var bar *progressbar.ProgressBar
	drawProgress := func(completed, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Generating speech"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(completed)
	}

	// The first progress call arrives once the script is parsed. It waits
	// for the spinner to stop before the bar is drawn.
	scriptReady := make(chan struct{})
	spinnerDone := make(chan struct{})
	var once sync.Once
	progress := func(completed, total int) {
		once.Do(func() {
			close(scriptReady)
			<-spinnerDone
		})
		drawProgress(completed, total)
	}

	type outcome struct {
		result *app.PodcastResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := app.NewPodcastPipeline(service).Run(ctx, app.Request{
			PDF:    data,
			Name:   filepath.Base(args[0]),
			Remark: strings.TrimSpace(podcastRemark),
		}, progress)
		done <- outcome{result, err}
	}()

	var out outcome
	finished := false
	_ = runWithSpinner("Writing script", func() error {
		select {
		case <-scriptReady:
			return nil
		case out = <-done:
			finished = true
			return out.err
		}
	})
	close(spinnerDone)
	if !finished {
		out = <-done
	}
	if bar != nil {
		_ = bar.Finish()
	}
	result, err := out.result, out.err
	if result != nil {
		printNotices(result.Notices)
	}
	if err != nil {
		return err
	}

	if result.Script != nil && !result.Script.IsEmpty() {
		fmt.Println(titleStyle.Render("Script"))
		fmt.Println(result.Script.FullText())
	}

	if result.Playable() {
		fmt.Println(successStyle.Render(fmt.Sprintf("✓ Podcast ready: %d segments, %d gaps", result.Audio.Segments, result.Audio.Gaps)))
	} else {
		fmt.Println(warnStyle.Render("Podcast file is empty"))
	}

	fmt.Println(titleStyle.Render("Artifacts"))
	printArtifacts(result.Artifacts, app.ArtifactScript, app.ArtifactPodcast)
	return nil
}
