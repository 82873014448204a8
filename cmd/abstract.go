package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"papercast/internal/app"
)

var abstractOutDir string

var abstractCmd = &cobra.Command{
	Use:   "abstract <paper.pdf>",
	Short: "Generate a workflow diagram and graphical abstract",
	Long: `Extract the abstract and methodology from a paper, ask the language model
for a step workflow and structured components, and write a Mermaid diagram
and an SVG graphical abstract.`,
	Args: cobra.ExactArgs(1),
	RunE: runAbstract,
}

func init() {
	abstractCmd.Flags().StringVarP(&abstractOutDir, "out", "o", "", "Output directory (overrides output.dir)")
	rootCmd.AddCommand(abstractCmd)
}

func runAbstract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := readPDF(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if abstractOutDir != "" {
		cfg.Output.Dir = abstractOutDir
	}

	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	var result *app.AbstractResult
	err = runWithSpinner("Analysing paper", func() error {
		var runErr error
		result, runErr = app.NewAbstractPipeline(service).Run(ctx, app.Request{
			PDF:  data,
			Name: filepath.Base(args[0]),
		})
		return runErr
	})
	if result != nil {
		printNotices(result.Notices)
	}
	if err != nil {
		return err
	}

	if result.WorkflowText != "" {
		fmt.Println(titleStyle.Render("Workflow"))
		fmt.Println(result.WorkflowText)
	}

	if paper, err := result.Components.Paper.JSON(); err == nil {
		fmt.Println(titleStyle.Render(fmt.Sprintf("Components (%s)", result.Components.Source)))
		fmt.Println(string(paper))
	}

	fmt.Println(titleStyle.Render("Artifacts"))
	printArtifacts(result.Artifacts, app.ArtifactWorkflow, app.ArtifactDiagram, app.ArtifactComponents, app.ArtifactSVG)
	return nil
}
