package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"Inventario/internal/history"
	"Inventario/pkg/kit"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var user, date string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show inventory changes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			day, err := history.ParseDay(date, a.History.Location())
			if err != nil {
				return report(f, kit.NewValidationError("date", fmt.Sprintf("cannot read date %q", date)))
			}

			records := a.History.Query(cmd.Context(), history.Filter{User: user, Date: day})
			return f.Emit(records, func(w io.Writer) error {
				return writeHistory(w, records, a.History.Location())
			})
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "only changes made by this user")
	cmd.Flags().StringVarP(&date, "date", "d", "", "only changes made on this day (YYYY-MM-DD)")

	cmd.AddCommand(newHistoryUsersCommand(rootOpts))
	cmd.AddCommand(newHistoryExportCommand(rootOpts))

	return cmd
}

func newHistoryUsersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List every user that appears in the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			users := a.History.DistinctUsers(cmd.Context())
			return f.Emit(users, func(w io.Writer) error {
				for _, u := range users {
					if _, err := fmt.Fprintln(w, u); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newHistoryExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the full history as CSV to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			a, err := rootOpts.openApp(cmd, f)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := history.ExportCSV(cmd.OutOrStdout(), a.History.ListAll(cmd.Context())); err != nil {
				return report(f, err)
			}
			return nil
		},
	}
}

func writeHistory(w io.Writer, records []history.Record, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tUSER\tACTION\tPRODUCT\tOLD\tNEW\tAMOUNT")
	for _, r := range records {
		amount := "-"
		if n, ok := r.Amount(); ok {
			amount = strconv.Itoa(n)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			r.Timestamp.In(loc).Format(historyTimeLayout),
			r.Username,
			r.Action.Label(),
			r.ProductName,
			r.OldQuantity,
			r.NewQuantity,
			amount,
		)
	}
	return tw.Flush()
}
