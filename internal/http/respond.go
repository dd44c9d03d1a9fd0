package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/storage/record"
)

const maxBodyBytes = 1 << 20

// transactionRequest is the body of create, edit and enqueue requests.
// Amount accepts a JSON number or a numeric string.
type transactionRequest struct {
	Date        string      `json:"date"`
	Kind        string      `json:"kind"`
	Category    string      `json:"category"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	Description string      `json:"description"`
}

func (req transactionRequest) details() (core.Details, error) {
	return record.DecodeDetails(
		strings.TrimSpace(req.Date),
		strings.TrimSpace(req.Kind),
		sanitizeInput(req.Category),
		req.Amount.String(),
		strings.ToUpper(strings.TrimSpace(req.Currency)),
		sanitizeInput(req.Description),
	)
}

type transactionResponse struct {
	ID          int64  `json:"id"`
	Owner       string `json:"owner"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type templateResponse struct {
	Owner       string `json:"owner"`
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

func toTransaction(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Owner:       tx.Owner,
		Date:        tx.Date.String(),
		Kind:        string(tx.Kind),
		Category:    tx.Category,
		Amount:      core.FormatAmount(tx.Amount),
		Currency:    tx.Currency,
		Description: tx.Description,
	}
}

func toTransactions(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransaction(tx))
	}
	return out
}

func toTemplates(rts []core.RecurringTemplate) []templateResponse {
	out := make([]templateResponse, 0, len(rts))
	for _, rt := range rts {
		out = append(out, templateResponse{
			Owner:       rt.Owner,
			Date:        rt.Date.String(),
			Kind:        string(rt.Kind),
			Category:    rt.Category,
			Amount:      core.FormatAmount(rt.Amount),
			Currency:    rt.Currency,
			Description: rt.Description,
		})
	}
	return out
}

type errorResponse struct {
	Error string `json:"error"`
}

// decodeBody reads a JSON body into dst. Malformed bodies are validation
// errors.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Field: "body", Err: fmt.Errorf("malformed JSON: %w", err)}
	}
	return nil
}

// statusFor maps ledger errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrQueueEmpty):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateID), errors.Is(err, core.ErrEmptyHistory), errors.Is(err, core.ErrQueueFull):
		return http.StatusConflict
	case errors.Is(err, core.ErrStorageFull):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError hides the text of unexpected errors from clients and logs them.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
