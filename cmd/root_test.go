package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"report", "capture", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "indicator-report", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestReportCommand_Flags(t *testing.T) {
	for _, name := range []string{"enrollment", "graduates", "indicators", "targets-sheet", "out", "admissions-file"} {
		flag := reportCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "report command should have --%s flag", name)
		assert.Equal(t, "", flag.DefValue)
	}

	year := reportCmd.Flags().Lookup("year")
	require.NotNil(t, year)
	assert.Equal(t, "0", year.DefValue)

	for _, name := range []string{"admission", "filter-enrollment", "filter-graduates", "generation"} {
		flag := reportCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "report command should have --%s flag", name)
		assert.Equal(t, "stringArray", flag.Value.Type())
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestCaptureCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range captureCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"list", "set", "clear", "import", "export"} {
		assert.True(t, names[name], "expected capture subcommand %q not found", name)
	}

	assert.NotNil(t, captureCmd.PersistentFlags().Lookup("indicators"))
}

func TestCaptureListCommand_Flags(t *testing.T) {
	page := captureListCmd.Flags().Lookup("page")
	require.NotNil(t, page)
	assert.Equal(t, "1", page.DefValue)

	size := captureListCmd.Flags().Lookup("size")
	require.NotNil(t, size)
	assert.Equal(t, "0", size.DefValue)
}

func TestCaptureSetCommand_RequiresIndicator(t *testing.T) {
	flag := captureSetCmd.Flags().Lookup("indicator")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations[cobra.BashCompOneRequiredFlag])
}
