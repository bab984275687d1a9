package utils

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/dev-tahir/xcoder-cli/constants/lipgloss"
)

// ConfirmPrompt asks a yes/no question about target and keeps asking until
// the answer is recognizable.
func ConfirmPrompt(target string, reader *bufio.Reader) (bool, error) {
	for {
		fmt.Print(lipgloss.BlueSky.Render(fmt.Sprintf("%s (y/n): ", target)))

		answer, err := reader.ReadString('\n')
		if err != nil {
			return false, fmt.Errorf("error reading input: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}
