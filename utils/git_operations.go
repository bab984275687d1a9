package utils

import (
	"fmt"
	"os/exec"
	"strings"
)

// GitOperations runs git against a fixed working directory.
type GitOperations struct {
	workingDir string
}

// NewGitOperations creates a new GitOperations instance.
func NewGitOperations(workingDir string) *GitOperations {
	return &GitOperations{workingDir: workingDir}
}

// CheckGitRepo reports whether the working directory is inside a git repo.
func (g *GitOperations) CheckGitRepo() error {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("not a git repository")
	}
	return nil
}

// AddFiles stages the given paths, or everything when none are given.
func (g *GitOperations) AddFiles(paths ...string) error {
	args := []string{"add"}
	if len(paths) == 0 {
		args = append(args, ".")
	} else {
		args = append(args, paths...)
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to stage files: %w", err)
	}
	return nil
}

// Commit creates a commit with the given message.
func (g *GitOperations) Commit(message string) error {
	cmd := exec.Command("git", "commit", "-m", message)
	cmd.Dir = g.workingDir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to create commit: %w", err)
	}
	return nil
}

// GetStagedDiff returns the diff of staged changes, empty when nothing is
// staged.
func (g *GitOperations) GetStagedDiff() (string, error) {
	cmd := exec.Command("git", "diff", "--cached", "--unified=3")
	cmd.Dir = g.workingDir
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("failed to get staged diff: %w", err)
	}
	return string(output), nil
}

// GetRecentCommits returns up to limit recent commit subjects.
func (g *GitOperations) GetRecentCommits(limit int) ([]string, error) {
	cmd := exec.Command("git", "log", fmt.Sprintf("--max-count=%d", limit), "--pretty=format:%s")
	cmd.Dir = g.workingDir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent commits: %w", err)
	}

	var commits []string
	for _, line := range strings.Split(string(output), "\n") {
		if line != "" {
			commits = append(commits, line)
		}
	}
	return commits, nil
}

// GetBranchName returns the current branch name.
func (g *GitOperations) GetBranchName() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = g.workingDir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get branch name: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// HasStagedChanges reports whether anything is staged for commit.
func (g *GitOperations) HasStagedChanges() (bool, error) {
	cmd := exec.Command("git", "diff", "--cached", "--quiet")
	cmd.Dir = g.workingDir
	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
			return true, nil
		}
		return false, fmt.Errorf("failed to check staged changes: %w", err)
	}
	return false, nil
}
