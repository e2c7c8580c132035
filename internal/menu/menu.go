package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"budget/internal/core"
	"budget/internal/log"

	"github.com/go-playground/validator/v10"
	"github.com/mattn/go-isatty"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const clearSequence = "\033[H\033[2J"

var hundred = decimal.NewFromInt(100)

// Menu drives the numbered menu over a reader and a writer.
type Menu struct {
	prompt   *prompter
	render   *renderer
	out      io.Writer
	validate *validator.Validate
	clear    func()
	logger   *log.Logger
}

// Options tunes a Menu. The zero value renders English numbers and clears
// the screen only when out is a terminal.
type Options struct {
	Locale language.Tag
	Logger *log.Logger
}

func New(in io.Reader, out io.Writer, opts Options) *Menu {
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentMenu, Output: io.Discard})
	}
	return &Menu{
		prompt:   &prompter{in: bufio.NewScanner(in), out: out},
		render:   &renderer{out: out, printer: message.NewPrinter(opts.Locale)},
		out:      out,
		validate: newValidator(),
		clear:    clearFunc(out),
		logger:   logger.WithComponent(log.ComponentMenu),
	}
}

// clearFunc clears the console only when out is a terminal, so piped
// output stays free of escape codes.
func clearFunc(out io.Writer) func() {
	f, ok := out.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return func() {}
	}
	return func() { fmt.Fprint(out, clearSequence) }
}

// Run shows the menu until the user exits or input ends.
func (m *Menu) Run(ctx context.Context, s *Session) error {
	for {
		fmt.Fprintln(m.out, "\n--- Menu ---")
		fmt.Fprintln(m.out, "1. Add Expense")
		fmt.Fprintln(m.out, "2. Show Shares")
		fmt.Fprintln(m.out, "3. Show Expenses")
		fmt.Fprintln(m.out, "4. Show Expenses This Month")
		fmt.Fprintln(m.out, "5. Delete Expense")
		fmt.Fprintln(m.out, "6. Edit Expense")
		fmt.Fprintln(m.out, "7. Save Expenses")
		fmt.Fprintln(m.out, "8. Load Expenses")
		fmt.Fprintln(m.out, "9. Exit")

		choice, err := m.prompt.line("\nEnter your choice: ")
		if err != nil {
			return quit(err)
		}
		m.clear()

		if choice == "9" {
			fmt.Fprintln(m.out, "Exiting...")
			return nil
		}
		if err := m.dispatch(ctx, s, choice); err != nil {
			return quit(err)
		}

		if _, err := m.prompt.line("\nPress Enter to return to the menu..."); err != nil {
			return quit(err)
		}
		m.clear()
	}
}

func quit(err error) error {
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// dispatch returns only input errors; ledger failures are reported to the
// user and the loop continues.
func (m *Menu) dispatch(ctx context.Context, s *Session, choice string) error {
	switch choice {
	case "1":
		return m.add(ctx, s)
	case "2":
		m.render.shares(s.Service.Summary())
	case "3":
		m.showExpenses(s)
	case "4":
		m.showThisMonth(s)
	case "5":
		m.showExpenses(s)
		return m.delete(ctx, s)
	case "6":
		m.showExpenses(s)
		return m.edit(ctx, s)
	case "7":
		return m.save(ctx, s)
	case "8":
		return m.load(ctx, s)
	default:
		fmt.Fprintln(m.out, "Invalid choice. Please try again.")
	}
	return nil
}

func (m *Menu) showExpenses(s *Session) {
	l := s.Service.Ledger()
	if l.Len() == 0 {
		fmt.Fprintln(m.out, "No expenses to show.")
		return
	}
	m.render.expenses(l.Participants(), l.Expenses())
}

func (m *Menu) showThisMonth(s *Session) {
	due, err := s.Service.DueIn(int(s.Now().Month()))
	if err != nil {
		m.report(err)
		return
	}
	if len(due) == 0 {
		fmt.Fprintln(m.out, "No expenses for this month.")
		return
	}
	m.render.due(due)
}

func (m *Menu) add(ctx context.Context, s *Session) error {
	name, err := m.prompt.line("Enter name of expense: ")
	if err != nil {
		return err
	}
	if _, err := s.Service.Ledger().Expense(name); err == nil {
		fmt.Fprintln(m.out, "Expense already exists.")
		return nil
	}

	participants := s.Service.Ledger().Participants()
	form, err := m.collect(expenseForm{
		Name:            name,
		Amount:          decimal.Zero,
		PaymentsPerYear: 12,
		FirstMonth:      int(s.Now().Month()),
		Shares:          equalSplit(participants),
	}, participants, false)
	if err != nil {
		return err
	}
	if !m.check(form) {
		return nil
	}

	if _, err := s.Service.Add(ctx, form.Name, form.Amount, form.PaymentsPerYear, form.FirstMonth, form.shares()); err != nil {
		m.report(err)
		return nil
	}
	fmt.Fprintln(m.out, "Expense added.")
	return nil
}

func (m *Menu) edit(ctx context.Context, s *Session) error {
	name, err := m.prompt.line("Enter the name of the expense to edit: ")
	if err != nil {
		return err
	}
	current, err := s.Service.Ledger().Expense(name)
	if err != nil {
		fmt.Fprintln(m.out, "Expense not found.")
		return nil
	}
	fmt.Fprintf(m.out, "Editing '%s' (press Enter to keep current value)\n", current.Name)

	form, err := m.collect(expenseForm{
		Name:            current.Name,
		Amount:          current.Amount,
		PaymentsPerYear: current.PaymentsPerYear,
		FirstMonth:      current.FirstMonth,
		Shares:          current.Shares.Clone(),
	}, s.Service.Ledger().Participants(), true)
	if err != nil {
		return err
	}
	if !m.check(form) {
		return nil
	}

	u := core.ExpenseUpdate{
		Name:            &form.Name,
		Amount:          &form.Amount,
		PaymentsPerYear: &form.PaymentsPerYear,
		FirstMonth:      &form.FirstMonth,
		Shares:          form.shares(),
	}
	if _, err := s.Service.Edit(ctx, current.Name, u); err != nil {
		m.report(err)
		return nil
	}
	fmt.Fprintln(m.out, "Expense updated.")
	return nil
}

// collect prompts for every field of f, offering f's values as defaults.
func (m *Menu) collect(f expenseForm, participants []string, editing bool) (expenseForm, error) {
	var err error
	prefix := ""
	if editing {
		if f.Name, err = m.prompt.text("New name", f.Name); err != nil {
			return f, err
		}
		prefix = "New "
	}
	amountLabel := "Amount"
	if prefix != "" {
		amountLabel = prefix + "amount"
	}
	if f.Amount, err = m.prompt.decimal(amountLabel, f.Amount); err != nil {
		return f, err
	}
	if f.PaymentsPerYear, err = m.prompt.whole("Payments per year", f.PaymentsPerYear); err != nil {
		return f, err
	}
	if f.FirstMonth, err = m.prompt.whole("First month", f.FirstMonth); err != nil {
		return f, err
	}
	for _, p := range participants {
		if f.Shares[p], err = m.prompt.decimal(fmt.Sprintf("%s's share (%%)", p), f.Shares[p]); err != nil {
			return f, err
		}
	}
	return f, nil
}

func (m *Menu) check(f expenseForm) bool {
	problems := f.validate(m.validate)
	for _, p := range problems {
		fmt.Fprintf(m.out, "Invalid input: %s.\n", p)
	}
	return len(problems) == 0
}

func (m *Menu) delete(ctx context.Context, s *Session) error {
	name, err := m.prompt.line("Name of expense: ")
	if err != nil {
		return err
	}
	if err := s.Service.Delete(ctx, name); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			fmt.Fprintln(m.out, "Expense not found.")
			return nil
		}
		m.report(err)
		return nil
	}
	fmt.Fprintln(m.out, "Expense deleted.")
	return nil
}

func (m *Menu) save(ctx context.Context, s *Session) error {
	target, err := m.prompt.line(fmt.Sprintf("%s: [%s]", s.TargetLabel, s.CurrentTarget))
	if err != nil {
		return err
	}
	if target == "" {
		target = s.CurrentTarget
	}
	if err := s.Service.Save(ctx, target); err != nil {
		fmt.Fprintf(m.out, "Error: could not save to '%s': %v\n", target, err)
		m.logger.ErrorContext(ctx, "Save failed", log.FieldTarget, target, log.FieldError, err)
		return nil
	}
	fmt.Fprintln(m.out, "Expenses saved.")
	return nil
}

func (m *Menu) load(ctx context.Context, s *Session) error {
	target, err := m.prompt.line(fmt.Sprintf("%s: [%s]", s.TargetLabel, s.CurrentTarget))
	if err != nil {
		return err
	}
	if target == "" {
		target = s.CurrentTarget
	}
	s.CurrentTarget = target

	err = s.Service.Load(ctx, target)
	switch {
	case err == nil:
		fmt.Fprintln(m.out, "Expenses loaded.")
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintf(m.out, "Error: File '%s' not found.\n", target)
	case errors.Is(err, core.ErrCorruptRecord), errors.Is(err, core.ErrUnsupportedSchema):
		fmt.Fprintf(m.out, "Error: File '%s' is not a valid ledger file: %v\n", target, err)
	default:
		fmt.Fprintf(m.out, "An unexpected error occurred: %v\n", err)
	}
	if err != nil {
		m.logger.ErrorContext(ctx, "Load failed", log.FieldTarget, target, log.FieldError, err)
	}
	return nil
}

// report prints a ledger error in words the user can act on.
func (m *Menu) report(err error) {
	var sumErr *core.ShareSumError
	switch {
	case errors.As(err, &sumErr):
		fmt.Fprintf(m.out, "Shares must add up to 100%%, got %s%%.\n", sumErr.Total.String())
	case errors.Is(err, core.ErrDuplicateName):
		fmt.Fprintln(m.out, "Expense already exists.")
	case errors.Is(err, core.ErrNotFound):
		fmt.Fprintln(m.out, "Expense not found.")
	case errors.Is(err, core.ErrValidation):
		fmt.Fprintf(m.out, "Invalid input: %v\n", err)
	default:
		fmt.Fprintf(m.out, "An unexpected error occurred: %v\n", err)
	}
}

// equalSplit divides 100 among participants in two-decimal steps; the last
// one takes the remainder so the total is exact.
func equalSplit(participants []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(participants))
	if len(participants) == 0 {
		return out
	}
	each := hundred.Div(decimal.NewFromInt(int64(len(participants)))).RoundDown(2)
	rest := hundred
	for i, p := range participants {
		if i == len(participants)-1 {
			out[p] = rest
			break
		}
		out[p] = each
		rest = rest.Sub(each)
	}
	return out
}
