package commands

import (
	"fmt"
	"io"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/spf13/cobra"
)

func newExpenseCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Edit the expense lines (akhrajat) of a transaction",
	}

	cmd.AddCommand(newExpenseAddCommand(opts))
	cmd.AddCommand(newExpenseUpdateCommand(opts))
	cmd.AddCommand(newExpenseDeleteCommand(opts))

	return cmd
}

func newExpenseAddCommand(opts *RootOptions) *cobra.Command {
	var description, amount string

	cmd := &cobra.Command{
		Use:   "add <transaction-id>",
		Short: "Add an expense line to a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txnID, err := parseID("transaction", args[0])
			if err != nil {
				return err
			}
			value, err := parseAmount("amount", amount)
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

			line, err := app.Ledger.AddExpense(cmd.Context(), txnID, description, value)
			if err != nil {
				return fmt.Errorf("could not add expense: %w", err)
			}

			return opts.formatter(cmd).Success(line, func(w io.Writer) error {
				return writeExpenses(w, []models.ExpenseLine{*line})
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "description, in Urdu (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount (required)")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newExpenseUpdateCommand(opts *RootOptions) *cobra.Command {
	var description, amount string

	cmd := &cobra.Command{
		Use:   "update <expense-id>",
		Short: "Change the description or amount of an expense line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("expense", args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			patch := models.ExpensePatch{Description: changedString(flags, "description", description)}
			if patch.Amount, err = changedAmount(flags, "amount", amount); err != nil {
				return err
			}
			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireUser(cmd.Context(), app); err != nil {
				return err
			}

			line, err := app.Ledger.UpdateExpense(cmd.Context(), id, patch)
			if err != nil {
				return fmt.Errorf("could not update expense: %w", err)
			}

			return opts.formatter(cmd).Success(line, func(w io.Writer) error {
				return writeExpenses(w, []models.ExpenseLine{*line})
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "description, in Urdu")
	cmd.Flags().StringVar(&amount, "amount", "", "amount")

	return cmd
}

func newExpenseDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <expense-id>",
		Short: "Delete an expense line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("expense", args[0])
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

			line, err := app.Ledger.DeleteExpense(cmd.Context(), id)
			if err != nil {
				return err
			}

			return opts.formatter(cmd).Success(line, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted expense %d of transaction %d\n", line.ID, line.TransactionID)
				return err
			})
		},
	}
}

func newTrolleyCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trolley",
		Short: "Inspect and edit trolley counts",
	}

	cmd.AddCommand(newTrolleyListCommand(opts))
	cmd.AddCommand(newTrolleyUpdateCommand(opts))

	return cmd
}

func newTrolleyListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <transaction-id>",
		Short: "List the trolleys of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txnID, err := parseID("transaction", args[0])
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

			trollies, err := app.Ledger.Trolleys(cmd.Context(), txnID)
			if err != nil {
				return err
			}

			return opts.formatter(cmd).Success(trollies, func(w io.Writer) error {
				return writeTrolleys(w, trollies)
			})
		},
	}
}

func newTrolleyUpdateCommand(opts *RootOptions) *cobra.Command {
	var start, end string
	var total int

	cmd := &cobra.Command{
		Use:   "update <trolley-id>",
		Short: "Change the serial range or count of a trolley",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("trolley", args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			var patch models.TrolleyPatch
			if patch.StartingNum, err = changedAmount(flags, "start", start); err != nil {
				return err
			}
			if patch.EndingNum, err = changedAmount(flags, "end", end); err != nil {
				return err
			}
			if flags.Changed("total") {
				patch.Total = &total
			}
			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireUser(cmd.Context(), app); err != nil {
				return err
			}

			trolley, err := app.Ledger.UpdateTrolley(cmd.Context(), id, patch)
			if err != nil {
				return fmt.Errorf("could not update trolley: %w", err)
			}

			return opts.formatter(cmd).Success(trolley, func(w io.Writer) error {
				return writeTrolleys(w, []models.Trolley{*trolley})
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "starting number")
	cmd.Flags().StringVar(&end, "end", "", "ending number")
	cmd.Flags().IntVar(&total, "total", 0, "trolley count")

	return cmd
}
