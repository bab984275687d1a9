package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dev-tahir/xcoder-cli/analyzer"
	analyzer_contracts "github.com/dev-tahir/xcoder-cli/analyzer/contracts"
	"github.com/dev-tahir/xcoder-cli/config"
	"github.com/dev-tahir/xcoder-cli/constants/lipgloss"
	"github.com/dev-tahir/xcoder-cli/detector"
	detector_contracts "github.com/dev-tahir/xcoder-cli/detector/contracts"
	"github.com/dev-tahir/xcoder-cli/providers"
	provider_contracts "github.com/dev-tahir/xcoder-cli/providers/contracts"
	"github.com/dev-tahir/xcoder-cli/taskflow"
	taskflow_contracts "github.com/dev-tahir/xcoder-cli/taskflow/contracts"
	"github.com/dev-tahir/xcoder-cli/token_management"
	token_contracts "github.com/dev-tahir/xcoder-cli/token_management/contracts"
)

// RootDependencies holds the wired components every subcommand works with.
type RootDependencies struct {
	Cwd                 string
	ProjectFilePath     string
	Config              *config.Config
	TokenManagement     token_contracts.ITokenManagement
	CurrentChatProvider provider_contracts.IChatAIProvider
	TaskFlow            taskflow_contracts.ITaskFlowManager
	Detector            detector_contracts.ITechnologyDetector
	Analyzer            analyzer_contracts.IFunctionAnalyzer
}

var rootCmd = &cobra.Command{
	Use:   "xcoder",
	Short: "AI-assisted project mapping and change assistant.",
	Long: `xcoder scans a software project, detects its technologies, and maintains a
plain-text project file describing the files and core functions of the
codebase. Once the project file exists, the chat subcommand answers
questions about the project and proposes concrete file changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.Flags().GetBool("version"); showVersion {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
}

// handleRootCommand loads configuration and builds the dependency graph.
// A nil return means a fatal setup problem was already reported.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	rootDependencies := &RootDependencies{}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}
	rootDependencies.Cwd = cwd

	rootDependencies.Config = config.LoadConfigs(cmd.Root(), cwd)

	rootDependencies.TokenManagement = token_management.NewTokenManager()

	currentChatProvider, err := providers.ChatProviderFactory(rootDependencies.Config.AIProviderConfig, rootDependencies.TokenManagement)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return nil
	}
	rootDependencies.CurrentChatProvider = currentChatProvider

	projectFilePath := rootDependencies.Config.ProjectFile
	if !filepath.IsAbs(projectFilePath) {
		projectFilePath = filepath.Join(cwd, projectFilePath)
	}
	rootDependencies.ProjectFilePath = projectFilePath
	rootDependencies.TaskFlow = taskflow.NewTaskFlowManager(projectFilePath)

	rootDependencies.Detector = detector.NewTechnologyDetector(currentChatProvider)

	cacheDir := filepath.Join(cwd, analyzer.DefaultCacheDirName)
	rootDependencies.Analyzer = analyzer.NewFunctionAnalyzer(currentChatProvider, cacheDir, rootDependencies.Config.EnableCache)

	return rootDependencies
}
