package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var drivesCmd = &cobra.Command{
	Use:   "drives",
	Short: "List the shared drives visible to the account",
	RunE:  runDrives,
}

func init() {
	rootCmd.AddCommand(drivesCmd)
}

func runDrives(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := newDriveClient(ctx)
	if err != nil {
		return err
	}

	drives, err := client.ListSharedDrives(ctx)
	if err != nil {
		return authHint(err)
	}
	if len(drives) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No shared drives found.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tID")
	for _, d := range drives {
		fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.ID)
	}
	return tw.Flush()
}
