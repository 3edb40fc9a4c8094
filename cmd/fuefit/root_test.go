package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gfon/fuefit/internal/testutil"
	"github.com/gfon/fuefit/pkg/fit"
)

// executeCommand runs a fresh root command and captures its output streams.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	stdoutBuf := new(bytes.Buffer)
	stderrBuf := new(bytes.Buffer)
	cmd := newRootCmd()
	cmd.SetOut(stdoutBuf)
	cmd.SetErr(stderrBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return stdoutBuf.String(), stderrBuf.String(), err
}

func TestRootCmdHelp(t *testing.T) {
	stdout, stderr, err := executeCommand("--help")
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "fuefit -i <table>")
	assert.Contains(t, stdout, "--ifile")
	assert.Contains(t, stdout, "--override")
	assert.Contains(t, stdout, "--query")
}

func TestRootCmdHelpListsAllFlags(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	require.NoError(t, err)

	check := func(f *pflag.Flag) {
		assert.Contains(t, stdout, "--"+f.Name)
		if f.Shorthand != "" {
			assert.Contains(t, stdout, "-"+f.Shorthand+",")
		}
	}
	cmd := newRootCmd()
	cmd.Flags().VisitAll(check)
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name != "help" {
			check(f)
		}
	})
}

func TestRootCmdVersion(t *testing.T) {
	stdout, _, err := executeCommand("--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "fuefit")
	assert.Contains(t, stdout, "version")
	assert.Contains(t, stdout, version)
}

func TestRootCmdUnknownFlag(t *testing.T) {
	_, _, err := executeCommand("--no-such-flag")
	require.Error(t, err)
	assert.ErrorIs(t, err, errUsage)
}

func TestRootCmdRejectsPositionalArgs(t *testing.T) {
	t.Run("single argument without query", func(t *testing.T) {
		_, _, err := executeCommand("data.csv")
		require.Error(t, err)
		assert.ErrorIs(t, err, errUsage)
	})

	t.Run("more than one argument", func(t *testing.T) {
		_, _, err := executeCommand("a.csv", "b.csv")
		assert.Error(t, err)
	})
}

func TestRootCmdQuery(t *testing.T) {
	t.Run("whole document", func(t *testing.T) {
		stdout, _, err := executeCommand("--query")
		require.NoError(t, err)
		assert.Contains(t, stdout, `"engine"`)
	})

	t.Run("space-separated path", func(t *testing.T) {
		stdout, _, err := executeCommand("--query", "/engine/rpm_idle")
		require.NoError(t, err)
		assert.Equal(t, "750\n", stdout)
	})

	t.Run("inline path", func(t *testing.T) {
		stdout, _, err := executeCommand("--query=/engine/rpm_idle")
		require.NoError(t, err)
		assert.Equal(t, "750\n", stdout)
	})

	t.Run("missing path", func(t *testing.T) {
		_, _, err := executeCommand("--query", "/engine/nope")
		assert.ErrorIs(t, err, fit.ErrConfiguration)
	})
}

func TestRootCmdFullRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "dyno.csv")
	output := filepath.Join(dir, "out.json")
	testutil.WriteFile(t, input,
		"RPM,P,FC\n1000,10,400\n1000,30,900\n1000,50,1500\n2000,10,550\n2000,30,1100\n2000,50,1800\n3000,10,700\n3000,30,1400\n3000,50,2200\n")

	_, _, err := executeCommand("-i", input, "-M", "fuel=PETROL", "-o", output, "--no-tui")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fc_map_coeffs")
}

func TestRootCmdValidationFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "dyno.csv")
	testutil.WriteFile(t, input,
		"RPM,P,FC\n1000,10,400\n1000,30,900\n1000,50,1500\n2000,10,550\n2000,30,1100\n2000,50,1800\n3000,10,700\n3000,30,1400\n3000,50,2200\n")

	// fuel is never set, so schema validation fails
	_, _, err := executeCommand("-i", input, "-o", filepath.Join(dir, "out.json"), "--no-tui")
	require.Error(t, err)
	assert.ErrorIs(t, err, fit.ErrValidation)
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"usage", fmt.Errorf("%w: unknown flag", errUsage), exitUsage},
		{"configuration", fmt.Errorf("%w: bad option", fit.ErrConfiguration), exitConfiguration},
		{"validation", fmt.Errorf("%w: schema", fit.ErrValidation), exitValidation},
		{"other", errors.New("boom"), exitFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}
}

func TestPrintError(t *testing.T) {
	inner := errors.New("file unreadable")
	err := fmt.Errorf("%w: %w", fit.ErrConfiguration, inner)

	var quiet bytes.Buffer
	printError(&quiet, err, false)
	assert.Contains(t, quiet.String(), "fuefit: ")
	assert.NotContains(t, quiet.String(), "caused by")

	var verbose bytes.Buffer
	printError(&verbose, err, true)
	assert.Contains(t, verbose.String(), "caused by: file unreadable")
}

func TestIsDebugRequested(t *testing.T) {
	assert.True(t, isDebugRequested([]string{"-i", "a.csv", "--debug"}))
	assert.False(t, isDebugRequested([]string{"-i", "a.csv"}))
	assert.False(t, isDebugRequested([]string{"--", "--debug"}))
}

// Guard against accidental state sharing between command constructions.
func TestNewRootCmdIsIndependent(t *testing.T) {
	a := newRootCmd()
	require.NoError(t, a.Flags().Set("ifile", "a.csv"))
	b := newRootCmd()
	values, err := b.Flags().GetStringArray("ifile")
	require.NoError(t, err)
	assert.Empty(t, values)
}
