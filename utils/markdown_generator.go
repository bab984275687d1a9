package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

var codeFenceLanguageRe = regexp.MustCompile("```([a-zA-Z0-9_+-]+)")

var isCodeBlock = false

// DetectLanguageFromCodeBlock returns the language of the last opened code
// fence in content, or "markdown" when none is tagged.
func DetectLanguageFromCodeBlock(content string) string {
	matches := codeFenceLanguageRe.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return "markdown"
	}
	return matches[len(matches)-1][1]
}

// RenderAndPrintMarkdown renders a single line with syntax highlighting.
// Diff-style additions and deletions inside code fences are colored directly.
func RenderAndPrintMarkdown(line string, language string, theme string) error {
	if strings.HasPrefix(line, "```") {
		isCodeBlock = !isCodeBlock
	}

	if strings.HasPrefix(line, "+") && isCodeBlock {
		fmt.Print("\x1b[92m" + line + "\x1b[0m")
	} else if strings.HasPrefix(line, "-") && isCodeBlock {
		fmt.Print("\x1b[91m" + line + "\x1b[0m")
	} else {
		if err := quick.Highlight(os.Stdout, line, language, "terminal256", theme); err != nil {
			return err
		}
	}

	return nil
}

// RenderAndPrintMarkdownWithContext renders multi-line content and checks
// for cancellation between lines so long replies stay interruptible.
func RenderAndPrintMarkdownWithContext(ctx context.Context, content string, language string, theme string) error {
	for _, line := range strings.Split(content, "\n") {
		select {
		case <-ctx.Done():
			fmt.Println()
			return ctx.Err()
		default:
		}

		if strings.HasPrefix(line, "```") {
			isCodeBlock = !isCodeBlock
		}

		if strings.HasPrefix(line, "+") && isCodeBlock {
			fmt.Print("\x1b[92m" + line + "\x1b[0m\n")
		} else if strings.HasPrefix(line, "-") && isCodeBlock {
			fmt.Print("\x1b[91m" + line + "\x1b[0m\n")
		} else {
			var buf bytes.Buffer
			if err := quick.Highlight(&buf, line+"\n", language, "terminal256", theme); err != nil {
				return err
			}
			fmt.Print(buf.String())
		}
	}

	return nil
}
