package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"converge", "check", "version", "self-update"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		assert.True(t, found, "subcommand %q not registered", name)
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCodeError, getExitCode(errors.New("boom")))
	assert.Equal(t, ExitCodeConvergeFailed, getExitCode(&convergeFailedError{failed: 2}))
}

func TestConvergeFailedError(t *testing.T) {
	err := &convergeFailedError{failed: 3}
	require.Contains(t, err.Error(), "3 failed")
}
