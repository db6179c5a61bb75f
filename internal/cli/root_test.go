package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersFlags(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	for _, name := range []string{"audio", "model", "language", "backend", "python", "server-url", "config", "env-file"} {
		require.NotNil(t, cmd.Flags().Lookup(name), "missing flag --%s", name)
	}
	for _, name := range []string{"verbose", "log-json", "no-progress"} {
		require.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing persistent flag --%s", name)
	}

	require.Equal(t, "", cmd.Flags().Lookup("language").DefValue)
	require.Equal(t, []string{"true"}, cmd.Flags().Lookup("audio").Annotations["cobra_annotation_bash_completion_one_required_flag"])
	require.Equal(t, []string{"true"}, cmd.Flags().Lookup("model").Annotations["cobra_annotation_bash_completion_one_required_flag"])
	require.Nil(t, cmd.Flags().Lookup("language").Annotations)
}

func TestRootHelpParsesSuccessfully(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)
	require.Contains(t, out.String(), "--audio")
	require.Contains(t, out.String(), "--model")
	require.Contains(t, out.String(), "--language")
	require.Contains(t, out.String(), "version")
}

func TestVersionSubcommand(t *testing.T) {
	t.Parallel()

	app := newTestApp(&stubBackend{})
	stdout, _, err := runCommand(t, app.appState, []string{"version"})
	require.NoError(t, err)
	require.Regexp(t, `^mlx-transcribe v\S+\n$`, stdout)
	require.Zero(t, app.opened)
}

func TestVersionFlagOutput(t *testing.T) {
	t.Parallel()

	app := newTestApp(&stubBackend{})
	stdout, _, err := runCommand(t, app.appState, []string{"--version"})
	require.NoError(t, err)
	require.Regexp(t, `^mlx-transcribe v\S+\n$`, stdout)
	require.Zero(t, app.opened)
}
