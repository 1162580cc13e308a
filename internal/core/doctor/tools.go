package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ToolsCheck verifies that the configured git executable is available.
type ToolsCheck struct {
	gitPath string
}

// NewToolsCheck creates a new tools check for the configured git binary.
func NewToolsCheck(gitPath string) *ToolsCheck {
	if gitPath == "" {
		gitPath = "git"
	}
	return &ToolsCheck{gitPath: gitPath}
}

func (c *ToolsCheck) Name() string {
	return "Dependencies"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if path, err := lookPathFunc(c.gitPath); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  c.gitPath,
			Status: StatusFail,
			Detail: "not found on PATH",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  c.gitPath,
			Status: StatusPass,
			Detail: path,
		})
	}

	return result
}
