package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/dev-tahir/xcoder-cli/analyzer"
	"github.com/dev-tahir/xcoder-cli/constants/lipgloss"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Remove the cached file analysis results.",
	Long: `The 'reset-cache' command removes the analysis cache directory used to
speed up repeated scans. Use it when cached summaries look stale or
corrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")
		handleResetCacheCommand(force)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force bool) {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return
	}
	cacheDir := filepath.Join(cwd, analyzer.DefaultCacheDirName)

	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		fmt.Println(lipgloss.Yellow.Render("No cache directory found. Nothing to reset."))
		return
	}

	if !force {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Are you sure you want to reset the analysis cache? (y/N): ")
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Resetting analysis cache...")

	cacheManager, err := analyzer.NewCacheManager(cacheDir)
	if err == nil {
		err = cacheManager.Clear()
	}

	spinnerInstance.Stop()
	fmt.Print("\r")
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error resetting cache: %v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render("✓ Analysis cache has been reset!"))
}
