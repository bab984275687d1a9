package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	analyzer_models "github.com/dev-tahir/xcoder-cli/analyzer/models"
	"github.com/dev-tahir/xcoder-cli/constants/lipgloss"
	detector_models "github.com/dev-tahir/xcoder-cli/detector/models"
	"github.com/dev-tahir/xcoder-cli/scanner"
	scanner_models "github.com/dev-tahir/xcoder-cli/scanner/models"
	taskflow_models "github.com/dev-tahir/xcoder-cli/taskflow/models"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the project and refresh the file index in the project file.",
	Long: `The 'scan' subcommand detects the project's technologies, walks the
directory tree with ignore patterns applied, and rewrites the PROJECT FILES
INDEX of the project file. Existing function records are preserved.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleScanCommand(rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func handleScanCommand(rootDependencies *RootDependencies) {
	ctx := context.Background()

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)

	spinnerDetect, _ := spinner.Start("Detecting technologies...")
	technologies := rootDependencies.Detector.DetectTechnologies(ctx, rootDependencies.Cwd)
	spinnerDetect.Stop()
	fmt.Print("\r")

	techNames := technologyNames(technologies)
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Technologies: %s", strings.Join(techNames, ", "))))

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

	info := projectInfoFromScan(summary)

	// A rescan keeps the function records and trailing configuration of an
	// existing project file; only the file index and technology change.
	if existing, err := rootDependencies.TaskFlow.Load(); err == nil {
		info.Functions = existing.Functions
		info.ConfigSection = existing.ConfigSection
		if existing.Description != "" {
			info.Description = existing.Description
		}
	}

	if err := rootDependencies.TaskFlow.Save(info); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error writing project file: %v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Indexed %d files into %s", len(summary.Files), rootDependencies.Config.ProjectFile)))
}

func technologyNames(technologies []detector_models.TechnologyInfo) []string {
	names := make([]string, 0, len(technologies))
	for _, tech := range technologies {
		names = append(names, tech.Name)
	}
	return names
}

func projectInfoFromScan(summary *scanner_models.ScanSummary) *taskflow_models.ProjectInfo {
	info := taskflow_models.NewProjectInfo()
	info.Name = summary.Name
	info.Description = summary.Description
	info.Technology = strings.Join(summary.Technologies, ", ")
	for _, file := range summary.Files {
		info.Files[file.Index] = &taskflow_models.ProjectFile{Index: file.Index, Path: file.RelativePath}
	}
	return info
}

func addAnalyzedFunctions(rootDependencies *RootDependencies, info *taskflow_models.ProjectInfo, functions []analyzer_models.AnalyzedFunction) {
	for _, function := range functions {
		id := rootDependencies.TaskFlow.AddFunction(info, function.Name, function.Description, function.Implementation, function.FilesInvolved)
		if function.FilesFlow != "" {
			info.Functions[id].FilesFlow = function.FilesFlow
		}
	}
}
