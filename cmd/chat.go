package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dev-tahir/xcoder-cli/chat"
	"github.com/dev-tahir/xcoder-cli/constants/lipgloss"
	"github.com/dev-tahir/xcoder-cli/taskflow"
	taskflow_models "github.com/dev-tahir/xcoder-cli/taskflow/models"
	"github.com/dev-tahir/xcoder-cli/utils"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat about the project and apply AI-proposed file changes.",
	Long: `The 'chat' subcommand starts an interactive session over the project
file. The assistant can look up function details, answer questions about
the project structure, and propose file changes which are applied only
after explicit confirmation.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		handleChatCommand(rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func handleChatCommand(rootDependencies *RootDependencies) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go utils.GracefulShutdown(ctx, func() {
		rootDependencies.TokenManagement.ClearToken()
	})

	info, err := rootDependencies.TaskFlow.Load()
	if err != nil {
		if errors.Is(err, taskflow.ErrNotFound) {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("No project file at %s. Run 'xcoder setup' first.", rootDependencies.ProjectFilePath)))
		} else {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
		return
	}

	chatManager := chat.NewChatManager(rootDependencies.CurrentChatProvider, rootDependencies.TaskFlow, rootDependencies.Cwd, rootDependencies.ProjectFilePath, rootDependencies.Config.Theme)

	reader := bufio.NewReader(os.Stdin)

	chatOptionsBox := lipgloss.BoxStyle.Render("/help  Help for chat subcommand")
	fmt.Println(chatOptionsBox)
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Project: %s | Session: %s", info.Name, chatManager.SessionID())))

	for {
		select {
		case <-ctx.Done():
			return

		default:
			userInput, err := utils.InputPromptWithContext(ctx, reader)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					fmt.Println(lipgloss.Yellow.Render("\nExiting..."))
					return
				}
				fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
				continue
			}

			if userInput == "" {
				fmt.Print("\r")
				continue
			}

			isSubcommand, exit := findChatSubCommand(userInput, rootDependencies, info)
			if isSubcommand {
				continue
			}
			if exit {
				return
			}

			if err := chatManager.ProcessRequest(ctx, info, userInput, reader); err != nil {
				if errors.Is(err, context.Canceled) {
					fmt.Println(lipgloss.Yellow.Render("\nExiting..."))
					return
				}
				fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			}

			rootDependencies.TokenManagement.DisplayTokens(
				rootDependencies.Config.AIProviderConfig.Provider,
				rootDependencies.Config.AIProviderConfig.Model,
			)
		}
	}
}

func findChatSubCommand(command string, rootDependencies *RootDependencies, info *taskflow_models.ProjectInfo) (bool, bool) {
	switch command {
	case "/help":
		helps := "/clear  Clear screen\n/exit  Exit from chat\n/functions  List project functions\n/files  List indexed files\n/status  Project summary\n/token  Token information\n/clear-token  Clear token from session"
		fmt.Println(lipgloss.BoxStyle.Render(helps))
		return true, false
	case "/clear":
		fmt.Print("\033[2J\033[H")
		return true, false
	case "/exit":
		return false, true
	case "/functions":
		printFunctions(info)
		return true, false
	case "/files":
		printFiles(info)
		return true, false
	case "/status":
		fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Project: %s", info.Name)))
		fmt.Printf("  Technology: %s\n", info.Technology)
		fmt.Printf("  Files: %d\n", len(info.Files))
		fmt.Printf("  Functions: %d\n", len(info.Functions))
		fmt.Printf("  Project file: %s\n", rootDependencies.ProjectFilePath)
		return true, false
	case "/token":
		rootDependencies.TokenManagement.DisplayTokens(
			rootDependencies.Config.AIProviderConfig.Provider,
			rootDependencies.Config.AIProviderConfig.Model,
		)
		return true, false
	case "/clear-token":
		rootDependencies.TokenManagement.ClearToken()
		return true, false
	default:
		return false, false
	}
}

func printFunctions(info *taskflow_models.ProjectInfo) {
	if len(info.Functions) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No functions recorded yet."))
		return
	}

	ids := make([]string, 0, len(info.Functions))
	for id := range info.Functions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return functionNumber(ids[i]) < functionNumber(ids[j]) })

	for _, id := range ids {
		function := info.Functions[id]
		fmt.Printf("%s. %s\n", id, function.Name)
		if function.Description != "" {
			fmt.Printf("   %s\n", function.Description)
		}
	}
}

func printFiles(info *taskflow_models.ProjectInfo) {
	if len(info.Files) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No files indexed yet."))
		return
	}

	indices := make([]int, 0, len(info.Files))
	for index := range info.Files {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	for _, index := range indices {
		fmt.Printf("%d. %s\n", index, info.Files[index].Path)
	}
}

func functionNumber(id string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(id, "F"))
	if err != nil {
		return 0
	}
	return n
}
