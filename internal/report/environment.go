package report

import (
	"runtime"

	"github.com/go-git/go-git/v5"
)

// Environment describes the engine's runtime and, best-effort, its git
// context, supplementing the distillation's plain platform/version fields
// with the current HEAD commit and branch whenever the hook-data directory
// lives inside a git repository. Grounded on the teacher's openRepository/
// IsOnDefaultBranch pair in git_operations.go, trimmed to a read-only HEAD
// lookup since the report generator never mutates the repository.
type Environment struct {
	EngineVersion string `json:"engineVersion"`
	HostVersion   string `json:"hostVersion"`
	Platform      string `json:"platform"`
	GitCommit     string `json:"gitCommit,omitempty"`
	GitBranch     string `json:"gitBranch,omitempty"`
}

// DescribeEnvironment builds an Environment for engineVersion/hostVersion,
// best-effort enriching it with git HEAD info discovered by walking up from
// root. Any git lookup failure (not a repo, detached HEAD, etc.) leaves the
// git fields empty rather than failing the report.
func DescribeEnvironment(root, engineVersion, hostVersion string) Environment {
	env := Environment{
		EngineVersion: engineVersion,
		HostVersion:   hostVersion,
		Platform:      runtime.GOOS + "/" + runtime.GOARCH,
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return env
	}
	head, err := repo.Head()
	if err != nil {
		return env
	}
	env.GitCommit = head.Hash().String()
	if head.Name().IsBranch() {
		env.GitBranch = head.Name().Short()
	}
	return env
}
