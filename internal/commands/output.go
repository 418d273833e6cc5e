package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

var ValidFormats = []string{FormatText, FormatJSON}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Response is the envelope of every JSON output.
type Response struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Success prints data. In text mode text renders it; a nil text prints data
// with fmt.
func (f *OutputFormatter) Success(data interface{}, text func(w io.Writer) error) error {
	if f.Format == FormatJSON {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	if text == nil {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return text(f.Writer)
}

func (f *OutputFormatter) Error(err error) error {
	if f.Format == FormatJSON {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "error", Error: err.Error()})
	}
	_, werr := fmt.Fprintf(f.Writer, "Error: %v\n", err)
	return werr
}

func writeTransactions(w io.Writer, txns []models.Transaction) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tZONE\tKHDA\tINCOME\tEXPENSES\tNET\tLEVY\tBALANCE\tSYNCED")
	for _, t := range txns {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date.Format("2006-01-02"), t.ZoneName, t.KhdaName,
			t.GrossIncome, t.GrossExpenses, t.NetIncome, t.Levy, t.Balance,
			syncLabel(t),
		)
	}
	return tw.Flush()
}

func writeTransaction(w io.Writer, t *models.Transaction) error {
	if err := writeTransactions(w, []models.Transaction{*t}); err != nil {
		return err
	}
	if len(t.Trollies) > 0 {
		fmt.Fprintln(w)
		if err := writeTrolleys(w, t.Trollies); err != nil {
			return err
		}
	}
	if len(t.Expenses) > 0 {
		fmt.Fprintln(w)
		if err := writeExpenses(w, t.Expenses); err != nil {
			return err
		}
	}
	return nil
}

func writeTrolleys(w io.Writer, trollies []models.Trolley) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TROLLEY\tSTART\tEND\tTOTAL")
	for _, t := range trollies {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", t.ID, t.StartingNum, t.EndingNum, t.Total)
	}
	return tw.Flush()
}

func writeExpenses(w io.Writer, expenses []models.ExpenseLine) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPENSE\tDESCRIPTION\tAMOUNT")
	for _, e := range expenses {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.ID, e.Description, e.Amount)
	}
	return tw.Flush()
}

func syncLabel(t models.Transaction) string {
	switch {
	case !t.Synced:
		return "no"
	case t.ModifiedSinceSync():
		return "modified"
	default:
		return "yes"
	}
}
