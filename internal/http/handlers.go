package http

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/report"
)

// handlerFunc runs with the owner's session held and returns the status and
// body to send.
type handlerFunc func(r *http.Request, sess *ledger.Session) (int, any, error)

func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn handlerFunc) {
	owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
	var (
		status int
		body   any
	)
	err := s.sessions.Do(r.Context(), owner, func(sess *ledger.Session) error {
		var err error
		status, body, err = fn(r, sess)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, body)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, &core.ValidationError{Field: "id", Err: core.ErrInvalidID}
	}
	return id, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		q := r.URL.Query()
		filters := 0
		for _, k := range []string{"q", "amount", "category", "sort"} {
			if q.Has(k) {
				filters++
			}
		}
		if filters > 1 {
			return 0, nil, &core.ValidationError{Field: "query", Err: errors.New("use only one of q, amount, category or sort")}
		}

		var txs []core.Transaction
		switch {
		case q.Has("q"):
			txs = sess.FindByDescription(q.Get("q"))
		case q.Has("amount"):
			amt, err := core.ParseAmount(q.Get("amount"))
			if err != nil {
				return 0, nil, err
			}
			txs = sess.FindByAmount(amt)
		case q.Has("category"):
			txs = sess.FindByCategory(q.Get("category"))
		case q.Get("sort") == "amount":
			txs = sess.SortedByAmount()
		case q.Get("sort") == "date":
			txs = sess.SortedByDate()
		case q.Has("sort"):
			return 0, nil, &core.ValidationError{Field: "sort", Err: errors.New("must be amount or date")}
		default:
			txs = sess.List()
		}
		return http.StatusOK, toTransactions(txs), nil
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		d, err := req.details()
		if err != nil {
			return 0, nil, err
		}
		tx, err := sess.Add(r.Context(), d)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, toTransaction(tx), nil
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		id, err := pathID(r)
		if err != nil {
			return 0, nil, err
		}
		tx, ok := sess.Find(id)
		if !ok {
			return 0, nil, core.ErrNotFound
		}
		return http.StatusOK, toTransaction(tx), nil
	})
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		id, err := pathID(r)
		if err != nil {
			return 0, nil, err
		}
		d, err := req.details()
		if err != nil {
			return 0, nil, err
		}
		tx, err := sess.Edit(r.Context(), id, d)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, toTransaction(tx), nil
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		id, err := pathID(r)
		if err != nil {
			return 0, nil, err
		}
		tx, err := sess.Delete(r.Context(), id)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, toTransaction(tx), nil
	})
}

type historyResponse struct {
	Command       string `json:"command"`
	TransactionID int64  `json:"transaction_id"`
	CanUndo       bool   `json:"can_undo"`
	CanRedo       bool   `json:"can_redo"`
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		cmd, err := sess.Undo(r.Context())
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, historyResponse{cmd.Name(), cmd.TransactionID(), sess.CanUndo(), sess.CanRedo()}, nil
	})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		cmd, err := sess.Redo(r.Context())
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, historyResponse{cmd.Name(), cmd.TransactionID(), sess.CanUndo(), sess.CanRedo()}, nil
	})
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		return http.StatusOK, toTemplates(sess.Recurring()), nil
	})
}

func (s *Server) handleEnqueueRecurring(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		d, err := req.details()
		if err != nil {
			return 0, nil, err
		}
		rt, err := sess.EnqueueRecurring(r.Context(), d)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, toTemplates([]core.RecurringTemplate{rt})[0], nil
	})
}

func (s *Server) handlePayNextRecurring(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		tx, err := sess.PayNextRecurring(r.Context())
		if err != nil {
			return 0, nil, err
		}
		return http.StatusCreated, toTransaction(tx), nil
	})
}

type categoryResponse struct {
	Category       string  `json:"category"`
	Count          int     `json:"count"`
	TotalSpent     string  `json:"total_spent"`
	TransactionIDs []int64 `json:"transaction_ids,omitempty"`
}

func toCategory(ct core.CategoryTotal, ids []int64) categoryResponse {
	return categoryResponse{
		Category:       ct.Category,
		Count:          ct.Count,
		TotalSpent:     core.FormatAmount(ct.TotalSpent),
		TransactionIDs: ids,
	}
}

type categoriesResponse struct {
	Categories []categoryResponse `json:"categories"`
	GrandTotal string             `json:"grand_total"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		summary := sess.CategorySummary()
		resp := categoriesResponse{
			Categories: make([]categoryResponse, 0, len(summary)),
			GrandTotal: core.FormatAmount(sess.GrandTotal()),
		}
		for _, ct := range summary {
			resp.Categories = append(resp.Categories, toCategory(ct, nil))
		}
		return http.StatusOK, resp, nil
	})
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		ct, ids, ok := sess.Category(r.PathValue("name"))
		if !ok {
			return 0, nil, core.ErrNotFound
		}
		return http.StatusOK, toCategory(ct, ids), nil
	})
}

type graphResponse struct {
	Vertices  []string    `json:"vertices"`
	Edges     []core.Edge `json:"edges"`
	Start     string      `json:"start,omitempty"`
	Order     []string    `json:"order,omitempty"`
	MSTWeight *int        `json:"mst_weight,omitempty"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		resp := graphResponse{Vertices: sess.Vertices(), Edges: sess.Edges()}
		start := r.URL.Query().Get("start")
		if start == "" {
			return http.StatusOK, resp, nil
		}

		weight, err := sess.MinimumSpanningTreeWeight(start)
		if err != nil {
			return 0, nil, err
		}
		resp.Start = start
		resp.MSTWeight = &weight

		switch order := r.URL.Query().Get("order"); order {
		case "", "dfs":
			resp.Order = slices.Collect(sess.DFS(start))
		case "bfs":
			resp.Order = slices.Collect(sess.BFS(start))
		default:
			return 0, nil, &core.ValidationError{Field: "order", Err: errors.New("must be dfs or bfs")}
		}
		return http.StatusOK, resp, nil
	})
}

type summaryResponse struct {
	report.Summary
	Months []report.MonthOverview `json:"months"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(r *http.Request, sess *ledger.Session) (int, any, error) {
		return http.StatusOK, summaryResponse{
			Summary: report.Build(sess),
			Months:  report.Monthly(sess.List()),
		}, nil
	})
}
