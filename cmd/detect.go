package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dev-tahir/xcoder-cli/constants/lipgloss"
	"github.com/dev-tahir/xcoder-cli/detector/models"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the technologies used by the project.",
	Long: `The 'detect' subcommand inspects well-known configuration files in the
project root (package.json, go.mod, Cargo.toml, ...) to identify the
technologies in use. When no rule matches, the AI provider is asked for a
best guess. With --write-ignore, a scan ignore file is generated for each
detected technology.`,
	Run: func(cmd *cobra.Command, args []string) {
		writeIgnore, _ := cmd.Flags().GetBool("write-ignore")

		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleDetectCommand(rootDependencies, writeIgnore)
	},
}

func init() {
	detectCmd.Flags().Bool("write-ignore", false, "Generate a <technology>.txt ignore file for each detected technology")
	rootCmd.AddCommand(detectCmd)
}

func handleDetectCommand(rootDependencies *RootDependencies, writeIgnore bool) {
	ctx := context.Background()

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)

	spinnerDetect, _ := spinner.Start("Detecting technologies...")
	technologies := rootDependencies.Detector.DetectTechnologies(ctx, rootDependencies.Cwd)
	spinnerDetect.Stop()
	fmt.Print("\r")

	fmt.Println(lipgloss.Info.Render("Detected technologies:"))
	for _, tech := range technologies {
		line := fmt.Sprintf("  %s (%.0f%% confidence, %s)", tech.Name, tech.Confidence*100, sourceLabel(tech.Source))
		fmt.Println(line)
		if tech.Description != "" {
			fmt.Printf("    %s\n", tech.Description)
		}
	}

	if !writeIgnore {
		return
	}

	spinnerIgnore, _ := spinner.Start("Generating ignore files...")
	created := rootDependencies.Detector.WriteIgnoreFiles(ctx, rootDependencies.Cwd, technologies)
	spinnerIgnore.Stop()
	fmt.Print("\r")

	if len(created) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No ignore files written (they may already exist)."))
		return
	}
	for _, path := range created {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Wrote %s", path)))
	}
}

func sourceLabel(source string) string {
	switch source {
	case models.SourceRules:
		return "rule match"
	case models.SourceAI:
		return "AI detected"
	case models.SourceAIUnavailable:
		return "AI unavailable"
	default:
		return source
	}
}
