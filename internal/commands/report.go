package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/IlyasAtabaev731/khata/internal/report"
	"github.com/spf13/cobra"
)

func newReportCommand(opts *RootOptions) *cobra.Command {
	var zone, timeFrame string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize transactions overall, per zone and per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tf, err := report.ParseTimeFrame(timeFrame)
			if err != nil {
				return err
			}
			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireUser(cmd.Context(), app); err != nil {
				return err
			}

			txns, err := app.Ledger.Transactions(cmd.Context())
			if err != nil {
				return err
			}

			rep := report.Build(txns, report.Filter{Zone: zone, TimeFrame: tf, Now: time.Now()})

			return opts.formatter(cmd).Success(rep, func(w io.Writer) error {
				return writeReport(w, rep)
			})
		},
	}

	cmd.Flags().StringVar(&zone, "zone", "", "only this zone")
	cmd.Flags().StringVar(&timeFrame, "time-frame", string(report.All), "all|week|month|year")

	return cmd
}

func writeReport(w io.Writer, rep report.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tCOUNT\tINCOME\tEXPENSES\tNET\tLEVY\tBALANCE")
	row := func(label string, t report.Totals) {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
			label, t.Count, t.GrossIncome, t.GrossExpenses, t.NetIncome, t.Levy, t.Balance)
	}
	row("total", rep.Totals)
	for _, z := range rep.Zones {
		row("zone "+z.Zone, z.Totals)
	}
	for _, m := range rep.Months {
		row("month "+m.Month, m.Totals)
	}
	return tw.Flush()
}
