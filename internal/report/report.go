// Package report aggregates ledger transactions for the summary view.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/IlyasAtabaev731/khata/internal/domain/models"
	"github.com/IlyasAtabaev731/khata/internal/lib/script"
	"github.com/shopspring/decimal"
)

type TimeFrame string

const (
	All   TimeFrame = "all"
	Week  TimeFrame = "week"
	Month TimeFrame = "month"
	Year  TimeFrame = "year"
)

var ErrUnknownTimeFrame = errors.New("unknown time frame")

func ParseTimeFrame(s string) (TimeFrame, error) {
	switch tf := TimeFrame(s); tf {
	case "":
		return All, nil
	case All, Week, Month, Year:
		return tf, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTimeFrame, s)
	}
}

// Cutoff returns the earliest date included by tf, or the zero time for All.
func (tf TimeFrame) Cutoff(now time.Time) time.Time {
	switch tf {
	case Week:
		return now.AddDate(0, 0, -7)
	case Month:
		return now.AddDate(0, -1, 0)
	case Year:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

type Filter struct {
	// Zone limits the report to one zone; empty means every zone.
	Zone      string
	TimeFrame TimeFrame
	Now       time.Time
}

type Totals struct {
	Count         int             `json:"count"`
	GrossIncome   decimal.Decimal `json:"income"`
	GrossExpenses decimal.Decimal `json:"expenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`
	Levy          decimal.Decimal `json:"levy"`
	Balance       decimal.Decimal `json:"balance"`
}

func (t *Totals) add(txn models.Transaction) {
	t.Count++
	t.GrossIncome = t.GrossIncome.Add(txn.GrossIncome)
	t.GrossExpenses = t.GrossExpenses.Add(txn.GrossExpenses)
	t.NetIncome = t.NetIncome.Add(txn.NetIncome)
	t.Levy = t.Levy.Add(txn.Levy)
	t.Balance = t.Balance.Add(txn.Balance)
}

type ZoneTotals struct {
	Zone string `json:"zone"`
	Totals
}

// MonthTotals is keyed by calendar month, formatted as 2006-01.
type MonthTotals struct {
	Month string `json:"month"`
	Totals
}

type Report struct {
	Totals Totals        `json:"totals"`
	Zones  []ZoneTotals  `json:"zones"`
	Months []MonthTotals `json:"months"`
}

// Build sums the transactions that pass f. Zones are sorted by name and
// months chronologically.
func Build(txns []models.Transaction, f Filter) Report {
	cutoff := f.TimeFrame.Cutoff(f.Now)
	zone := script.Normalize(f.Zone)

	zones := map[string]*ZoneTotals{}
	months := map[string]*MonthTotals{}
	rep := Report{Zones: []ZoneTotals{}, Months: []MonthTotals{}}

	for _, txn := range txns {
		if zone != "" && txn.ZoneName != zone {
			continue
		}
		if !cutoff.IsZero() && txn.Date.Before(cutoff) {
			continue
		}

		rep.Totals.add(txn)

		z, ok := zones[txn.ZoneName]
		if !ok {
			z = &ZoneTotals{Zone: txn.ZoneName}
			zones[txn.ZoneName] = z
		}
		z.add(txn)

		key := txn.Date.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthTotals{Month: key}
			months[key] = m
		}
		m.add(txn)
	}

	for _, z := range zones {
		rep.Zones = append(rep.Zones, *z)
	}
	sort.Slice(rep.Zones, func(i, j int) bool { return rep.Zones[i].Zone < rep.Zones[j].Zone })

	for _, m := range months {
		rep.Months = append(rep.Months, *m)
	}
	sort.Slice(rep.Months, func(i, j int) bool { return rep.Months[i].Month < rep.Months[j].Month })

	return rep
}
