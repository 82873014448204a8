package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// envOrder is the order keys are written to .env.
var envOrder = []string{
	"GROQ_API_KEY",
	"GEMINI_API_KEY",
	"MURF_API_KEY",
	"ELEVENLABS_API_KEY",
	"FISH_AUDIO_API_KEY",
	"GOOGLE_CLOUD_PROJECT",
	"GCS_BUCKET",
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Papercast",
	Long:  `Check for ffmpeg, create the output directory and write API keys to .env.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("🎙 Papercast Setup"))

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Checking tools", checkTools},
		{"Creating directories", createDirectories},
		{"Configuring environment", configureEnv},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func checkTools() error {
	if commandExists("ffmpeg") {
		fmt.Println(successStyle.Render("✓ Found ffmpeg"))
		return nil
	}
	fmt.Println(warnStyle.Render("ffmpeg not found - podcasts need it to join audio segments (https://ffmpeg.org/download.html)"))
	return nil
}

func createDirectories() error {
	if err := os.MkdirAll("output", 0755); err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	fmt.Println(successStyle.Render("✓ Created output directory"))
	return nil
}

func configureEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureLLMKeys(env); err != nil {
		return err
	}
	if err := configureSpeech(env); err != nil {
		return err
	}
	if err := configureGCP(env); err != nil {
		return err
	}

	return writeEnvFile(".env", env)
}

func configureLLMKeys(env map[string]string) error {
	var groqKey, geminiKey string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Groq API Key").
				Description("Used for the graphical abstract - https://console.groq.com/keys").
				EchoMode(huh.EchoModePassword).
				Value(&groqKey).
				Validate(required("Groq API Key")),
			huh.NewInput().
				Title("Gemini API Key").
				Description("Used for podcast scripts - https://aistudio.google.com/apikey").
				EchoMode(huh.EchoModePassword).
				Value(&geminiKey).
				Validate(required("Gemini API Key")),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	env["GROQ_API_KEY"] = strings.TrimSpace(groqKey)
	env["GEMINI_API_KEY"] = strings.TrimSpace(geminiKey)
	return nil
}

func configureSpeech(env map[string]string) error {
	var provider string
	if err := huh.NewSelect[string]().
		Title("Text-to-speech provider").
		Options(
			huh.NewOption("Murf", "murf"),
			huh.NewOption("ElevenLabs", "elevenlabs"),
			huh.NewOption("Fish Audio", "fishaudio"),
			huh.NewOption("None (silent dry runs)", "stub"),
		).
		Value(&provider).
		Run(); err != nil {
		return err
	}

	var key, envKey, hint string
	switch provider {
	case "murf":
		envKey, hint = "MURF_API_KEY", "https://murf.ai/api/dashboard"
	case "elevenlabs":
		envKey, hint = "ELEVENLABS_API_KEY", "Several comma separated keys are rotated on quota errors"
	case "fishaudio":
		envKey, hint = "FISH_AUDIO_API_KEY", "Set fishaudio.host_voice and guest_voice reference ids in config.yaml"
	default:
		fmt.Println(infoStyle.Render("Set tts.provider: stub in config.yaml for silent audio"))
		return nil
	}

	if err := huh.NewInput().
		Title(envKey).
		Description(hint).
		EchoMode(huh.EchoModePassword).
		Value(&key).
		Validate(required(envKey)).
		Run(); err != nil {
		return err
	}
	env[envKey] = strings.TrimSpace(key)
	return nil
}

func configureGCP(env map[string]string) error {
	var setupGCP bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud?").
		Description("Optional: store run artifacts in GCS and read keys from Secret Manager").
		Value(&setupGCP).
		Run(); err != nil {
		return err
	}

	if !setupGCP {
		return nil
	}

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		return nil
	}

	project, err := chooseGCPProject()
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("GCP setup skipped: %v", err)))
		return nil
	}
	env["GOOGLE_CLOUD_PROJECT"] = project

	if err := enableGCPAPIs(project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}

	var bucket string
	if err := huh.NewInput().
		Title("GCS bucket for artifacts").
		Description("Leave empty to keep artifacts on disk; set storage.provider: gcs to use it").
		Value(&bucket).
		Run(); err != nil {
		return err
	}
	if bucket = strings.TrimSpace(bucket); bucket != "" {
		env["GCS_BUCKET"] = bucket
	}

	return nil
}

func chooseGCPProject() (string, error) {
	existing := getActiveProject()

	var choice string
	var options []huh.Option[string]
	if existing != "" {
		options = append(options, huh.NewOption(fmt.Sprintf("Use current: %s", existing), existing))
	}
	options = append(options, huh.NewOption("Enter project ID manually", "manual"))

	if err := huh.NewSelect[string]().
		Title("Google Cloud Project").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return "", err
	}

	if choice != "manual" {
		return choice, nil
	}

	var projectID string
	if err := huh.NewInput().
		Title("Project ID").
		Value(&projectID).
		Validate(required("Project ID")).
		Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(projectID), nil
}

func getActiveProject() string {
	out, err := exec.Command("gcloud", "config", "get-value", "project").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func enableGCPAPIs(project string) error {
	apis := []string{
		"storage.googleapis.com",
		"secretmanager.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd("gcloud", args...)
	})
}

func writeEnvFile(path string, env map[string]string) error {
	if err := os.WriteFile(path, []byte(renderEnv(env)), 0600); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func renderEnv(env map[string]string) string {
	var sb strings.Builder
	for _, key := range envOrder {
		if val, ok := env[key]; ok && val != "" {
			fmt.Fprintf(&sb, "%s=%s\n", key, val)
		}
	}
	return sb.String()
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Run: papercast abstract paper.pdf")
	fmt.Println("  2. Run: papercast podcast paper.pdf --ask")
	fmt.Println("  3. Or serve uploads: papercast serve")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
