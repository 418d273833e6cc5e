package commands

import (
	"fmt"
	"io"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/ledger"
	"github.com/spf13/cobra"
)

// amountFlags are the five aggregate columns shared by create and update.
type amountFlags struct {
	income, expenses, net, levy, balance string
}

func (a *amountFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.income, "income", "", "gross income (KulAmdan)")
	cmd.Flags().StringVar(&a.expenses, "expenses", "", "gross expenses (KulAkhrajat)")
	cmd.Flags().StringVar(&a.net, "net", "", "net income (SaafiAmdan)")
	cmd.Flags().StringVar(&a.levy, "levy", "", "levy (Exercise)")
	cmd.Flags().StringVar(&a.balance, "balance", "", "balance (KulMaizan)")
}

func newTxnCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "txn",
		Short: "Record and edit transactions",
	}

	cmd.AddCommand(newTxnCreateCommand(opts))
	cmd.AddCommand(newTxnListCommand(opts))
	cmd.AddCommand(newTxnShowCommand(opts))
	cmd.AddCommand(newTxnUpdateCommand(opts))
	cmd.AddCommand(newTxnDeleteCommand(opts))
	cmd.AddCommand(newTxnSearchCommand(opts))
	cmd.AddCommand(newTxnLastEndingCommand(opts))

	return cmd
}

func newTxnCreateCommand(opts *RootOptions) *cobra.Command {
	var zone, khda, date, start, end string
	var amounts amountFlags
	var trolleyTotal int
	var expenses []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a transaction with its trolley and expense lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			user, err := requireUser(cmd.Context(), app)
			if err != nil {
				return err
			}

			p := ledger.CreateTransactionParams{
				UserID:       user.ID,
				ZoneName:     zone,
				KhdaName:     khda,
				TrolleyTotal: trolleyTotal,
			}
			if p.Date, err = parseDate(date); err != nil {
				return err
			}
			if p.GrossIncome, err = parseAmount("income", amounts.income); err != nil {
				return err
			}
			if p.GrossExpenses, err = parseAmount("expenses", amounts.expenses); err != nil {
				return err
			}
			if p.NetIncome, err = parseAmount("net", amounts.net); err != nil {
				return err
			}
			if p.Levy, err = parseAmount("levy", amounts.levy); err != nil {
				return err
			}
			if p.Balance, err = parseAmount("balance", amounts.balance); err != nil {
				return err
			}
			if p.StartingNum, err = parseAmount("start", start); err != nil {
				return err
			}
			if p.EndingNum, err = parseAmount("end", end); err != nil {
				return err
			}
			for _, e := range expenses {
				in, err := parseExpense(e)
				if err != nil {
					return err
				}
				p.Expenses = append(p.Expenses, in)
			}

			txn, err := app.Ledger.CreateTransaction(cmd.Context(), p)
			if err != nil {
				return fmt.Errorf("could not create transaction: %w", err)
			}

			return opts.formatter(cmd).Success(txn, func(w io.Writer) error {
				return writeTransaction(w, txn)
			})
		},
	}

	cmd.Flags().StringVar(&zone, "zone", "", "zone name, in Urdu (required)")
	cmd.Flags().StringVar(&khda, "khda", "", "khda name, in Urdu (required)")
	cmd.Flags().StringVar(&date, "date", "", "transaction date YYYY-MM-DD (default today)")
	amounts.register(cmd)
	cmd.Flags().StringVar(&start, "start", "", "trolley starting number")
	cmd.Flags().StringVar(&end, "end", "", "trolley ending number")
	cmd.Flags().IntVar(&trolleyTotal, "trolley-total", 0, "trolley count")
	cmd.Flags().StringArrayVar(&expenses, "expense", nil, "expense line as description=amount (repeatable)")
	_ = cmd.MarkFlagRequired("zone")
	_ = cmd.MarkFlagRequired("khda")

	return cmd
}

func newTxnListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			return opts.formatter(cmd).Success(txns, func(w io.Writer) error {
				return writeTransactions(w, txns)
			})
		},
	}
}

func newTxnShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one transaction with its trolleys and expense lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("transaction", args[0])
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

			txn, err := app.Ledger.Transaction(cmd.Context(), id)
			if err != nil {
				return err
			}

			return opts.formatter(cmd).Success(txn, func(w io.Writer) error {
				return writeTransaction(w, txn)
			})
		},
	}
}

func newTxnUpdateCommand(opts *RootOptions) *cobra.Command {
	var zone, khda, date string
	var amounts amountFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the given fields of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("transaction", args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			patch := models.TransactionPatch{
				ZoneName: changedString(flags, "zone", zone),
				KhdaName: changedString(flags, "khda", khda),
			}
			if flags.Changed("date") {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				patch.Date = &d
			}
			if patch.GrossIncome, err = changedAmount(flags, "income", amounts.income); err != nil {
				return err
			}
			if patch.GrossExpenses, err = changedAmount(flags, "expenses", amounts.expenses); err != nil {
				return err
			}
			if patch.NetIncome, err = changedAmount(flags, "net", amounts.net); err != nil {
				return err
			}
			if patch.Levy, err = changedAmount(flags, "levy", amounts.levy); err != nil {
				return err
			}
			if patch.Balance, err = changedAmount(flags, "balance", amounts.balance); err != nil {
				return err
			}

			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireUser(cmd.Context(), app); err != nil {
				return err
			}

			txn, err := app.Ledger.UpdateTransaction(cmd.Context(), id, patch)
			if err != nil {
				return fmt.Errorf("could not update transaction: %w", err)
			}

			return opts.formatter(cmd).Success(txn, func(w io.Writer) error {
				return writeTransaction(w, txn)
			})
		},
	}

	cmd.Flags().StringVar(&zone, "zone", "", "zone name, in Urdu")
	cmd.Flags().StringVar(&khda, "khda", "", "khda name, in Urdu")
	cmd.Flags().StringVar(&date, "date", "", "transaction date YYYY-MM-DD")
	amounts.register(cmd)

	return cmd
}

func newTxnDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction with its trolleys and expense lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("transaction", args[0])
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

			if err := app.Ledger.DeleteTransaction(cmd.Context(), id); err != nil {
				return err
			}

			return opts.formatter(cmd).Success(map[string]int64{"deleted": id}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Deleted transaction %d\n", id)
				return err
			})
		},
	}
}

func newTxnSearchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find transactions by zone or khda name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireUser(cmd.Context(), app); err != nil {
				return err
			}

			txns, err := app.Ledger.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return opts.formatter(cmd).Success(txns, func(w io.Writer) error {
				return writeTransactions(w, txns)
			})
		},
	}
}

func newTxnLastEndingCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "last-ending",
		Short: "Print the ending number of the most recent trolley",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.App(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := requireUser(cmd.Context(), app); err != nil {
				return err
			}

			n, err := app.Ledger.LastEndingNumber(cmd.Context())
			if err != nil {
				return err
			}

			return opts.formatter(cmd).Success(map[string]string{"lastEndingNum": n.String()}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, n.String())
				return err
			})
		},
	}
}
