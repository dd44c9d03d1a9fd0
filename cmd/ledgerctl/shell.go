package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/report"
	"ledger/internal/storage/record"
)

const detailsUsage = "<date> <income|expense> <category> <amount> <currency> [description...]"

var errUsage = errors.New("wrong arguments")

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, sh *shell, args []string) error
}

var commands = map[string]command{
	"add":            {detailsUsage, "record a transaction", cmdAdd},
	"edit":           {"<id> " + detailsUsage, "replace the details of a transaction", cmdEdit},
	"delete":         {"<id>", "delete a transaction", cmdDelete},
	"list":           {"", "list transactions in insertion order", cmdList},
	"search":         {"desc|amount|category <value>", "find transactions", cmdSearch},
	"sort":           {"amount|date", "list transactions sorted", cmdSort},
	"undo":           {"", "undo the last change", cmdUndo},
	"redo":           {"", "redo the last undone change", cmdRedo},
	"recurring":      {detailsUsage, "schedule a recurring payment", cmdRecurring},
	"process":        {"", "pay the next recurring payment", cmdProcess},
	"view-recurring": {"", "list scheduled recurring payments", cmdViewRecurring},
	"analysis":       {"", "income, expenses and monthly overview", cmdAnalysis},
	"categories":     {"[name]", "category summary or one category", cmdCategories},
	"graph":          {"[start [dfs|bfs]]", "category co-occurrence graph", cmdGraph},
}

type shell struct {
	sess *ledger.Session
	out  io.Writer
}

func newShell(sess *ledger.Session, out io.Writer) *shell {
	return &shell{sess: sess, out: out}
}

// run reads commands from in until quit, EOF or ctx is done. Command errors
// are printed and do not stop the shell.
func (sh *shell) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(sh.out)
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := sh.exec(ctx, sc.Text()); quit {
			return nil
		}
	}
}

func (sh *shell) exec(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "quit", "exit":
		return true
	case "help", "?":
		sh.help()
		return false
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(sh.out, "unknown command %q, type help\n", name)
		return false
	}
	if err := cmd.run(ctx, sh, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(sh.out, "usage: %s %s\n", name, cmd.usage)
		} else {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}
	return false
}

func (sh *shell) help() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(tw, "%s %s\t%s\n", name, commands[name].usage, commands[name].help)
	}
	fmt.Fprintln(tw, "quit\tleave the shell")
	tw.Flush()
}

func parseDetails(args []string) (core.Details, error) {
	if len(args) < 5 {
		return core.Details{}, errUsage
	}
	return record.DecodeDetails(args[0], args[1], args[2], args[3], strings.ToUpper(args[4]), strings.Join(args[5:], " "))
}

func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id < 1 {
		return 0, &core.ValidationError{Field: "id", Err: core.ErrInvalidID}
	}
	return id, nil
}

func (sh *shell) printTransactions(txs []core.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(sh.out, "no transactions")
		return
	}
	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDate\tKind\tCategory\tAmount\tCurrency\tDescription")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date, tx.Kind, tx.Category, core.FormatAmount(tx.Amount), tx.Currency, tx.Description)
	}
	tw.Flush()
}

func cmdAdd(ctx context.Context, sh *shell, args []string) error {
	d, err := parseDetails(args)
	if err != nil {
		return err
	}
	tx, err := sh.sess.Add(ctx, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "added transaction %d\n", tx.ID)
	return nil
}

func cmdEdit(ctx context.Context, sh *shell, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	d, err := parseDetails(args[1:])
	if err != nil {
		return err
	}
	if _, err := sh.sess.Edit(ctx, id, d); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "edited transaction %d\n", id)
	return nil
}

func cmdDelete(ctx context.Context, sh *shell, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}
	if _, err := sh.sess.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "deleted transaction %d\n", id)
	return nil
}

func cmdList(_ context.Context, sh *shell, _ []string) error {
	sh.printTransactions(sh.sess.List())
	return nil
}

func cmdSearch(_ context.Context, sh *shell, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	value := strings.Join(args[1:], " ")
	switch args[0] {
	case "desc", "description":
		sh.printTransactions(sh.sess.FindByDescription(value))
	case "amount":
		amt, err := core.ParseAmount(value)
		if err != nil {
			return err
		}
		sh.printTransactions(sh.sess.FindByAmount(amt))
	case "category":
		sh.printTransactions(sh.sess.FindByCategory(value))
	default:
		return errUsage
	}
	return nil
}

func cmdSort(_ context.Context, sh *shell, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	switch args[0] {
	case "amount":
		sh.printTransactions(sh.sess.SortedByAmount())
	case "date":
		sh.printTransactions(sh.sess.SortedByDate())
	default:
		return errUsage
	}
	return nil
}

func cmdUndo(ctx context.Context, sh *shell, _ []string) error {
	cmd, err := sh.sess.Undo(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "undid %s of transaction %d\n", cmd.Name(), cmd.TransactionID())
	return nil
}

func cmdRedo(ctx context.Context, sh *shell, _ []string) error {
	cmd, err := sh.sess.Redo(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "redid %s of transaction %d\n", cmd.Name(), cmd.TransactionID())
	return nil
}

func cmdRecurring(ctx context.Context, sh *shell, args []string) error {
	d, err := parseDetails(args)
	if err != nil {
		return err
	}
	if _, err := sh.sess.EnqueueRecurring(ctx, d); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "scheduled %s %s %s\n", d.Category, core.FormatAmount(d.Amount), d.Currency)
	return nil
}

func cmdProcess(ctx context.Context, sh *shell, _ []string) error {
	tx, err := sh.sess.PayNextRecurring(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "paid recurring %s as transaction %d\n", tx.Category, tx.ID)
	return nil
}

func cmdViewRecurring(_ context.Context, sh *shell, _ []string) error {
	items := sh.sess.Recurring()
	if len(items) == 0 {
		fmt.Fprintln(sh.out, "no recurring payments")
		return nil
	}
	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDate\tKind\tCategory\tAmount\tCurrency\tDescription")
	for i, rt := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, rt.Date, rt.Kind, rt.Category, core.FormatAmount(rt.Amount), rt.Currency, rt.Description)
	}
	return tw.Flush()
}

func cmdAnalysis(_ context.Context, sh *shell, _ []string) error {
	s := report.Build(sh.sess)
	fmt.Fprintf(sh.out, "transactions: %d\n", s.Count)
	fmt.Fprintf(sh.out, "income:       %s\n", core.FormatAmount(s.TotalIncome))
	fmt.Fprintf(sh.out, "expense:      %s\n", core.FormatAmount(s.TotalExpense))
	fmt.Fprintf(sh.out, "net:          %s\n", core.FormatAmount(s.Net))

	months := report.Monthly(sh.sess.List())
	if len(months) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Month\tIncome\tExpense")
	for _, m := range months {
		fmt.Fprintf(tw, "%04d-%02d\t%s\t%s\n", m.Year, m.Month, core.FormatAmount(m.Income), core.FormatAmount(m.Expense))
	}
	return tw.Flush()
}

func cmdCategories(_ context.Context, sh *shell, args []string) error {
	if len(args) > 0 {
		name := strings.Join(args, " ")
		ct, ids, ok := sh.sess.Category(name)
		if !ok {
			return fmt.Errorf("category %q: %w", name, core.ErrNotFound)
		}
		fmt.Fprintf(sh.out, "%s: %d transactions, %s spent, ids %v\n", ct.Category, ct.Count, core.FormatAmount(ct.TotalSpent), ids)
		return nil
	}

	summary := sh.sess.CategorySummary()
	if len(summary) == 0 {
		fmt.Fprintln(sh.out, "no categories")
		return nil
	}
	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Category\tCount\tSpent")
	for _, ct := range summary {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", ct.Category, ct.Count, core.FormatAmount(ct.TotalSpent))
	}
	fmt.Fprintf(tw, "total\t\t%s\n", core.FormatAmount(sh.sess.GrandTotal()))
	return tw.Flush()
}

func cmdGraph(_ context.Context, sh *shell, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(sh.out, "categories: %s\n", strings.Join(sh.sess.Vertices(), ", "))
		edges := sh.sess.Edges()
		if len(edges) == 0 {
			fmt.Fprintln(sh.out, "no co-occurrences")
			return nil
		}
		for _, e := range edges {
			fmt.Fprintf(sh.out, "%s -- %s (%d)\n", e.From, e.To, e.Weight)
		}
		return nil
	}
	if len(args) > 2 {
		return errUsage
	}

	start := args[0]
	weight, err := sh.sess.MinimumSpanningTreeWeight(start)
	if err != nil {
		return err
	}
	order := "dfs"
	if len(args) == 2 {
		order = args[1]
	}
	var visited []string
	switch order {
	case "dfs":
		visited = slices.Collect(sh.sess.DFS(start))
	case "bfs":
		visited = slices.Collect(sh.sess.BFS(start))
	default:
		return errUsage
	}
	fmt.Fprintf(sh.out, "%s from %s: %s\n", order, start, strings.Join(visited, " -> "))
	fmt.Fprintf(sh.out, "spanning tree weight: %d\n", weight)
	return nil
}
