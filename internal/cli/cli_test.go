package cli_test

import (
	"testing"

	"github.com/ignatij/logreport/internal/cli"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupCLI(t *testing.T) {
	root := &cobra.Command{Use: "logreport"}
	cli.SetupCLI(root)

	for _, name := range []string{"serve", "send-report", "send-selected", "download", "ping"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	sendSelected, _, err := root.Find([]string{"send-selected"})
	require.NoError(t, err)
	require.NoError(t, sendSelected.ParseFlags([]string{"--id", "a1", "--id", "b2,c3"}))
	ids, err := sendSelected.Flags().GetStringSlice("id")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b2", "c3"}, ids)

	download, _, err := root.Find([]string{"download"})
	require.NoError(t, err)
	out, err := download.Flags().GetString("out")
	require.NoError(t, err)
	assert.Equal(t, "ApiLogs.pdf", out)

	assert.NotNil(t, root.PersistentFlags().Lookup("env"))
}
