package menu

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"budget/internal/core"
	"budget/internal/ledger"

	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// renderer prints tables with locale-aware number formatting.
type renderer struct {
	out     io.Writer
	printer *message.Printer
}

func (r *renderer) money(d decimal.Decimal) string {
	return r.printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(),
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

func (r *renderer) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	tw.Flush()
}

func (r *renderer) shares(summary []ledger.ParticipantShare) {
	rows := make([][]string, len(summary))
	for i, s := range summary {
		rows[i] = []string{s.Participant, r.money(s.Yearly), r.money(s.Monthly)}
	}
	r.table([]string{"Participant", "Yearly", "Monthly"}, rows)
}

func (r *renderer) expenses(participants []string, expenses []core.Expense) {
	header := []string{"Name", "Amount", "Frequency", "Payments/Year", "First Month", "Payment Months", "Total/Year"}
	for _, p := range participants {
		header = append(header, p)
	}
	rows := make([][]string, len(expenses))
	for i, e := range expenses {
		row := []string{
			e.Name,
			r.money(e.Amount),
			core.Label(e.PaymentsPerYear),
			strconv.Itoa(e.PaymentsPerYear),
			strconv.Itoa(e.FirstMonth),
			joinMonths(e.PaymentMonths),
			r.money(e.TotalPerYear),
		}
		for _, p := range participants {
			row = append(row, r.money(e.Allocation(p)))
		}
		rows[i] = row
	}
	r.table(header, rows)
}

func (r *renderer) due(due []ledger.DueExpense) {
	rows := make([][]string, len(due))
	for i, d := range due {
		rows[i] = []string{d.Name, r.money(d.Amount)}
	}
	r.table([]string{"Name", "Amount"}, rows)
}

func joinMonths(months []int) string {
	parts := make([]string, len(months))
	for i, m := range months {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ", ")
}
