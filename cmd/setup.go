package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dev-tahir/xcoder-cli/constants/lipgloss"
	"github.com/dev-tahir/xcoder-cli/scanner"
	taskflow_models "github.com/dev-tahir/xcoder-cli/taskflow/models"
	"github.com/dev-tahir/xcoder-cli/utils"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Build the project file from scratch: detect, scan, and analyze.",
	Long: `The 'setup' subcommand runs the full pipeline: technology detection,
ignore file generation, project scan, and AI function analysis. The result
is written to the project file. When analysis is unavailable the file is
still written with the file index only.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleSetupCommand(rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func handleSetupCommand(rootDependencies *RootDependencies) {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	if _, err := rootDependencies.TaskFlow.Load(); err == nil {
		overwrite, err := utils.ConfirmPrompt(fmt.Sprintf("%s already exists. Overwrite it?", rootDependencies.Config.ProjectFile), reader)
		if err != nil || !overwrite {
			fmt.Println(lipgloss.Yellow.Render("Setup cancelled."))
			return
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)

	spinnerDetect, _ := spinner.Start("Detecting technologies...")
	technologies := rootDependencies.Detector.DetectTechnologies(ctx, rootDependencies.Cwd)
	spinnerDetect.Stop()
	fmt.Print("\r")

	techNames := technologyNames(technologies)
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Technologies: %s", strings.Join(techNames, ", "))))

	for _, path := range rootDependencies.Detector.WriteIgnoreFiles(ctx, rootDependencies.Cwd, technologies) {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Wrote %s", path)))
	}

	spinnerScan, _ := spinner.Start("Scanning project files...")
	summary, err := scanner.NewProjectScanner(rootDependencies.Cwd).Scan(ctx, techNames)
	spinnerScan.Stop()
	fmt.Print("\r")
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	for _, warning := range summary.Warnings {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: %s", warning)))
	}
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Found %d project files", len(summary.Files))))

	spinnerAnalyze, _ := spinner.Start("Analyzing project functions with AI...")
	functions, err := rootDependencies.Analyzer.AnalyzeProjectFunctions(ctx, summary.Files, techNames)
	spinnerAnalyze.Stop()
	fmt.Print("\r")
	if err != nil {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: function analysis unavailable: %v", err)))
		functions = nil
	}

	info := projectInfoFromScan(summary)
	addAnalyzedFunctions(rootDependencies, info, functions)

	if err := rootDependencies.TaskFlow.Save(info); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error writing project file: %v", err)))
		return
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Wrote %s with %d files and %d functions", rootDependencies.Config.ProjectFile, len(info.Files), len(info.Functions))))

	offerManualFunctions(rootDependencies, reader, info)
}

// offerManualFunctions lets the user append function records the analysis
// missed. Saves once at the end, only if something was added.
func offerManualFunctions(rootDependencies *RootDependencies, reader *bufio.Reader, info *taskflow_models.ProjectInfo) {
	added := 0
	for {
		more, err := utils.ConfirmPrompt("Add a function manually?", reader)
		if err != nil || !more {
			break
		}

		fmt.Println(lipgloss.BlueSky.Render("Function name:"))
		name, err := utils.InputPrompt(reader)
		if err != nil || name == "" {
			fmt.Println(lipgloss.Yellow.Render("Skipped: a function needs a name."))
			continue
		}

		fmt.Println(lipgloss.BlueSky.Render("Description:"))
		description, err := utils.InputPrompt(reader)
		if err != nil {
			continue
		}

		fmt.Println(lipgloss.BlueSky.Render("File indices involved (e.g. 1 3 7, empty for none):"))
		rawIndices, err := utils.InputPrompt(reader)
		if err != nil {
			continue
		}
		filesInvolved := parseIndices(rawIndices)

		id := rootDependencies.TaskFlow.AddFunction(info, name, description, "", filesInvolved)
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Added %s. %s", id, strings.ToUpper(name))))
		added++
	}

	if added == 0 {
		return
	}
	if err := rootDependencies.TaskFlow.Save(info); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error writing project file: %v", err)))
		return
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Saved %d manual function(s)", added)))
}

func parseIndices(raw string) []int {
	var indices []int
	for _, field := range strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' }) {
		var index int
		if _, err := fmt.Sscanf(field, "%d", &index); err == nil && index > 0 {
			indices = append(indices, index)
		}
	}
	return indices
}
