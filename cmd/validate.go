package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dev-tahir/xcoder-cli/constants/lipgloss"
	"github.com/dev-tahir/xcoder-cli/taskflow"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the project file for dangling references and duplicates.",
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleValidateCommand(rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func handleValidateCommand(rootDependencies *RootDependencies) {
	info, err := rootDependencies.TaskFlow.Load()
	if err != nil {
		if errors.Is(err, taskflow.ErrNotFound) {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("No project file at %s. Run 'xcoder setup' first.", rootDependencies.ProjectFilePath)))
		} else {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
		return
	}

	issues := rootDependencies.TaskFlow.Validate(info)
	if len(issues) == 0 {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ %s is consistent: %d files, %d functions", rootDependencies.Config.ProjectFile, len(info.Files), len(info.Functions))))
		return
	}

	fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Found %d issue(s):", len(issues))))
	for _, issue := range issues {
		fmt.Printf("  - %s\n", issue.Message)
	}
}
