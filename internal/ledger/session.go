package ledger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/category"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/recurring"
)

// Persister loads and saves the transactions of one owner. It is called once
// when a session opens and after every mutation.
type Persister interface {
	Load(ctx context.Context, owner string) ([]core.Transaction, error)
	Save(ctx context.Context, owner string, txs []core.Transaction) error
}

// RecurringPersister is implemented by persisters that can also keep the
// recurring queue. Sessions whose persister lacks it keep the queue in memory.
type RecurringPersister interface {
	LoadRecurring(ctx context.Context, owner string) ([]core.RecurringTemplate, error)
	SaveRecurring(ctx context.Context, owner string, items []core.RecurringTemplate) error
}

// IDWatermark is implemented by persisters that remember the highest id ever
// issued to an owner, including ids of transactions deleted since.
type IDWatermark interface {
	MaxIssuedID(ctx context.Context, owner string) (int64, error)
}

// Event describes one committed mutation.
type Event struct {
	Owner         string
	Op            string
	TransactionID int64
}

// Notifier is told about committed mutations. Failures are logged and never
// undo the mutation.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Options configures a Session. Zero limits mean unbounded.
type Options struct {
	MaxTransactions   int
	HistoryLimit      int
	RecurringCapacity int
	Persister         Persister
	Notifier          Notifier
	Logger            *log.Logger
}

// Session is the ledger engine of one owner. It is not safe for concurrent
// use; adapters serving several clients must serialize calls.
type Session struct {
	owner     string
	store     *Store
	history   *History
	queue     *recurring.Queue
	index     *category.Index
	graph     *category.Graph
	stale     bool
	persister Persister
	recurring RecurringPersister
	notifier  Notifier
	logger    *log.Logger
	events    *log.StructuredLogger
}

// OpenSession loads the owner's ledger through opts.Persister and returns a
// ready session. owner must already be authenticated.
func OpenSession(ctx context.Context, owner string, opts Options) (*Session, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, &core.ValidationError{Field: "owner", Err: core.ErrEmptyOwner}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentLedger).With(log.FieldOwner, owner)

	s := &Session{
		owner:     owner,
		store:     NewStore(owner, opts.MaxTransactions),
		history:   NewHistory(opts.HistoryLimit),
		queue:     recurring.NewQueue(opts.RecurringCapacity),
		index:     category.NewIndex(),
		graph:     category.NewGraph(),
		stale:     true,
		persister: opts.Persister,
		notifier:  opts.Notifier,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
	if rp, ok := opts.Persister.(RecurringPersister); ok {
		s.recurring = rp
	}

	if s.persister != nil {
		txs, err := s.persister.Load(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("load ledger for %s: %w", owner, err)
		}
		if err := s.store.Load(txs); err != nil {
			return nil, err
		}
		if wm, ok := s.persister.(IDWatermark); ok {
			maxID, err := wm.MaxIssuedID(ctx, owner)
			if err != nil {
				return nil, fmt.Errorf("load id watermark for %s: %w", owner, err)
			}
			s.store.ReserveThrough(maxID)
		}
	}
	if s.recurring != nil {
		items, err := s.recurring.LoadRecurring(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("load recurring for %s: %w", owner, err)
		}
		if err := s.queue.Load(items); err != nil {
			return nil, err
		}
	}
	logger.DebugContext(ctx, "Session opened", log.FieldCount, s.store.Len(), "recurring", s.queue.Len())
	return s, nil
}

func (s *Session) Owner() string {
	return s.owner
}

func (s *Session) Len() int {
	return s.store.Len()
}

// Add validates d, stores it as a new transaction and records the command.
func (s *Session) Add(ctx context.Context, d core.Details) (core.Transaction, error) {
	tx, err := s.add(ctx, core.Transaction{Owner: s.owner, Details: d})
	if err != nil {
		return core.Transaction{}, err
	}
	s.committed(ctx, AddCommand{Tx: tx}, tx, log.OpCreate)
	return tx, nil
}

// Edit replaces the editable fields of transaction id.
func (s *Session) Edit(ctx context.Context, id int64, d core.Details) (core.Transaction, error) {
	before, after, err := s.store.Edit(id, d)
	if err != nil {
		return core.Transaction{}, err
	}
	cmd := EditCommand{Before: before, After: after}
	if err := s.save(ctx); err != nil {
		return core.Transaction{}, s.rollback(cmd, err)
	}
	s.committed(ctx, cmd, after, log.OpUpdate)
	return after, nil
}

// Delete removes transaction id and returns it.
func (s *Session) Delete(ctx context.Context, id int64) (core.Transaction, error) {
	tx, err := s.store.Delete(id)
	if err != nil {
		return core.Transaction{}, err
	}
	cmd := DeleteCommand{Tx: tx}
	if err := s.save(ctx); err != nil {
		return core.Transaction{}, s.rollback(cmd, err)
	}
	s.committed(ctx, cmd, tx, log.OpDelete)
	return tx, nil
}

// Undo reverses the most recent mutation and returns the command undone.
func (s *Session) Undo(ctx context.Context) (Command, error) {
	cmd, err := s.history.Undo(s.store)
	if err != nil {
		return nil, err
	}
	s.stale = true
	if err := s.save(ctx); err != nil {
		if _, rerr := s.history.Redo(s.store); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "Undo", log.FieldOperation, cmd.Name(), log.FieldTransactionID, cmd.TransactionID())
	s.notify(ctx, log.OpUndo, cmd.TransactionID())
	return cmd, nil
}

// Redo re-applies the most recently undone mutation.
func (s *Session) Redo(ctx context.Context) (Command, error) {
	cmd, err := s.history.Redo(s.store)
	if err != nil {
		return nil, err
	}
	s.stale = true
	if err := s.save(ctx); err != nil {
		if _, rerr := s.history.Undo(s.store); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, "Redo", log.FieldOperation, cmd.Name(), log.FieldTransactionID, cmd.TransactionID())
	s.notify(ctx, log.OpRedo, cmd.TransactionID())
	return cmd, nil
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

func (s *Session) Find(id int64) (core.Transaction, bool) {
	return s.store.Find(id)
}

// List returns every transaction in store order.
func (s *Session) List() []core.Transaction {
	return s.store.List()
}

// EnqueueRecurring schedules d as a recurring payment at the tail of the queue.
func (s *Session) EnqueueRecurring(ctx context.Context, d core.Details) (core.RecurringTemplate, error) {
	rt := core.RecurringTemplate{Owner: s.owner, Details: d}
	if err := s.queue.Enqueue(rt); err != nil {
		return core.RecurringTemplate{}, err
	}
	if err := s.saveRecurring(ctx); err != nil {
		s.queue.DropLast()
		return core.RecurringTemplate{}, err
	}
	s.logger.InfoContext(ctx, "Recurring payment scheduled",
		log.FieldOperation, log.OpEnqueue, log.FieldCategory, rt.Category, log.FieldAmount, core.FormatAmount(rt.Amount))
	return rt, nil
}

// PayNextRecurring materializes the head of the recurring queue into a new
// transaction. If either the ledger or the shortened queue cannot be saved,
// the payment is rolled back and the template stays at the head of the queue.
func (s *Session) PayNextRecurring(ctx context.Context) (core.Transaction, error) {
	head, ok := s.queue.Peek()
	if !ok {
		return core.Transaction{}, core.ErrQueueEmpty
	}
	tx, err := s.queue.PayNext(recurring.AdderFunc(func(tx core.Transaction) (core.Transaction, error) {
		return s.add(ctx, tx)
	}))
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.saveRecurring(ctx); err != nil {
		err = s.rollback(AddCommand{Tx: tx}, err)
		if serr := s.save(ctx); serr != nil {
			err = errors.Join(err, serr)
		}
		s.queue.PushFront(head)
		s.logger.WarnContext(ctx, "Recurring payment rolled back",
			log.FieldTransactionID, tx.ID, log.FieldError, err)
		return core.Transaction{}, err
	}
	s.committed(ctx, AddCommand{Tx: tx}, tx, log.OpPayNext)
	return tx, nil
}

// Recurring returns the queued templates, head first.
func (s *Session) Recurring() []core.RecurringTemplate {
	return s.queue.Items()
}

func (s *Session) TotalIncome() decimal.Decimal {
	return s.store.TotalIncome()
}

func (s *Session) TotalExpense() decimal.Decimal {
	return s.store.TotalExpense()
}

// CategorySummary lists categories in ascending name order with their item
// count and expense total.
func (s *Session) CategorySummary() []core.CategoryTotal {
	s.refresh()
	return s.index.InOrder()
}

// GrandTotal is the sum of every category total.
func (s *Session) GrandTotal() decimal.Decimal {
	s.refresh()
	return s.index.GrandTotal()
}

// Category returns the summary and member ids of one category.
func (s *Session) Category(name string) (core.CategoryTotal, []int64, bool) {
	s.refresh()
	ct, ok := s.index.Lookup(name)
	if !ok {
		return core.CategoryTotal{}, nil, false
	}
	return ct, s.index.IDs(name), true
}

func (s *Session) Vertices() []string {
	s.refresh()
	return s.graph.Vertices()
}

func (s *Session) Edges() []core.Edge {
	s.refresh()
	return s.graph.Edges()
}

// DFS walks the category graph depth-first from start. The sequence reflects
// the ledger at the time it is ranged over.
func (s *Session) DFS(start string) iter.Seq[string] {
	return func(yield func(string) bool) {
		s.refresh()
		s.graph.DFS(start)(yield)
	}
}

// BFS walks the category graph breadth-first from start.
func (s *Session) BFS(start string) iter.Seq[string] {
	return func(yield func(string) bool) {
		s.refresh()
		s.graph.BFS(start)(yield)
	}
}

// MinimumSpanningTreeWeight returns the MST weight of the component of start.
func (s *Session) MinimumSpanningTreeWeight(start string) (int, error) {
	s.refresh()
	return s.graph.MinimumSpanningTreeWeight(start)
}

// add stores tx and saves the ledger. On a save failure the transaction is
// removed again and its id stays burned.
func (s *Session) add(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx, err := s.store.Add(tx)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.save(ctx); err != nil {
		return core.Transaction{}, s.rollback(AddCommand{Tx: tx}, err)
	}
	return tx, nil
}

func (s *Session) rollback(cmd Command, cause error) error {
	if err := cmd.revert(s.store); err != nil {
		return errors.Join(cause, fmt.Errorf("roll back %s: %w", describe(cmd), err))
	}
	return cause
}

func (s *Session) committed(ctx context.Context, cmd Command, tx core.Transaction, op string) {
	s.history.Record(cmd)
	s.stale = true
	s.events.LogMutation(ctx, s.owner, op, tx.ID, string(tx.Kind), tx.Category, core.FormatAmount(tx.Amount), tx.Currency)
	s.notify(ctx, op, tx.ID)
}

func (s *Session) notify(ctx context.Context, op string, id int64) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, Event{Owner: s.owner, Op: op, TransactionID: id}); err != nil {
		s.logger.WarnContext(ctx, "Ledger change notification failed",
			log.FieldOperation, op, log.FieldTransactionID, id, log.FieldError, err)
	}
}

func (s *Session) save(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(ctx, s.owner, s.store.List()); err != nil {
		return fmt.Errorf("save ledger for %s: %w", s.owner, err)
	}
	return nil
}

func (s *Session) saveRecurring(ctx context.Context) error {
	if s.recurring == nil {
		return nil
	}
	if err := s.recurring.SaveRecurring(ctx, s.owner, s.queue.Items()); err != nil {
		return fmt.Errorf("save recurring for %s: %w", s.owner, err)
	}
	return nil
}

// refresh rebuilds the category read-models after the store changed.
func (s *Session) refresh() {
	if !s.stale {
		return
	}
	txs := s.store.List()
	s.index.Rebuild(txs)
	s.graph.Rebuild(txs)
	s.stale = false
}
