package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolsCheck_GitPresent(t *testing.T) {
	orig := lookPathFunc
	t.Cleanup(func() { lookPathFunc = orig })

	lookPathFunc = func(file string) (string, error) {
		return "/usr/bin/" + file, nil
	}

	check := NewToolsCheck("git")
	result := check.Run(context.Background())

	assert.Equal(t, "Dependencies", result.Name)
	require.Len(t, result.Items, 1)

	assert.Equal(t, "git", result.Items[0].Label)
	assert.Equal(t, StatusPass, result.Items[0].Status)
	assert.Equal(t, "/usr/bin/git", result.Items[0].Detail)
}

func TestToolsCheck_GitMissing(t *testing.T) {
	orig := lookPathFunc
	t.Cleanup(func() { lookPathFunc = orig })

	lookPathFunc = func(file string) (string, error) {
		return "", &exec.Error{Name: file, Err: fmt.Errorf("not found")}
	}

	check := NewToolsCheck("git")
	result := check.Run(context.Background())

	require.Len(t, result.Items, 1)
	assert.Equal(t, StatusFail, result.Items[0].Status)
	assert.Equal(t, "not found on PATH", result.Items[0].Detail)
}

func TestToolsCheck_DefaultsToGit(t *testing.T) {
	orig := lookPathFunc
	t.Cleanup(func() { lookPathFunc = orig })

	var asked string
	lookPathFunc = func(file string) (string, error) {
		asked = file
		return "/usr/bin/" + file, nil
	}

	NewToolsCheck("").Run(context.Background())
	assert.Equal(t, "git", asked)
}
