package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/GoCodeAlone/bootevents"
	"github.com/spf13/cobra"
)

// supportingEventKinds are published around the lifecycle events by the
// context, the bootstrap registry and the availability probes.
var supportingEventKinds = []bootevents.EventKind{
	bootevents.EventKindBootstrapContextClosed,
	bootevents.EventKindContextRefreshed,
	bootevents.EventKindAvailabilityChange,
	bootevents.EventKindContextClosed,
}

// NewEventsCommand creates the events command listing the CloudEvents types
// bootctl run can print.
func NewEventsCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List lifecycle event types",
		Long: `List the CloudEvents types published during a run, in the order a
successful startup publishes them. Use --all to include context, bootstrap and
availability events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PHASE\tTYPE")
			for i, kind := range bootevents.LifecycleEventKinds() {
				fmt.Fprintf(w, "%d\t%s\n", i+1, kind)
			}
			if all {
				for _, kind := range supportingEventKinds {
					fmt.Fprintf(w, "-\t%s\n", kind)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include context, bootstrap and availability events")
	return cmd
}
