package cmd_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/GoCodeAlone/bootevents"
	"github.com/GoCodeAlone/bootevents/cmd/bootctl/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventsCommand(t *testing.T) {
	t.Run("lifecycle events in order", func(t *testing.T) {
		eventsCmd := cmd.NewEventsCommand()
		buf := new(bytes.Buffer)
		eventsCmd.SetOut(buf)
		eventsCmd.SetArgs([]string{})
		require.NoError(t, eventsCmd.Execute())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 8)
		assert.Contains(t, lines[0], "TYPE")
		for i, kind := range bootevents.LifecycleEventKinds() {
			assert.Contains(t, lines[i+1], string(kind))
		}
		assert.NotContains(t, buf.String(), string(bootevents.EventKindContextRefreshed))
	})

	t.Run("all events", func(t *testing.T) {
		eventsCmd := cmd.NewEventsCommand()
		buf := new(bytes.Buffer)
		eventsCmd.SetOut(buf)
		eventsCmd.SetArgs([]string{"--all"})
		require.NoError(t, eventsCmd.Execute())

		assert.Contains(t, buf.String(), string(bootevents.EventKindContextRefreshed))
		assert.Contains(t, buf.String(), string(bootevents.EventKindAvailabilityChange))
	})

	t.Run("rejects arguments", func(t *testing.T) {
		eventsCmd := cmd.NewEventsCommand()
		eventsCmd.SetOut(new(bytes.Buffer))
		eventsCmd.SetErr(new(bytes.Buffer))
		eventsCmd.SetArgs([]string{"extra"})
		assert.Error(t, eventsCmd.Execute())
	})
}
