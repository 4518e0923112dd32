package http

import (
	"errors"
	"net/http"
	"time"

	"fintrack/internal/exchange"
	"fintrack/internal/log"
	"fintrack/internal/period"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

const maxDailyDays = 366

// handleHealth is a liveness check that also reports basic counters.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"status":        "ok",
		"timestamp":     time.Now().Format(time.RFC3339),
		"uptime":        time.Since(s.started).Round(time.Second).String(),
		"transactions":  len(s.ledger.Transactions()),
		"activeClients": s.rateLimiter.activeClients(),
		"security":      s.metrics.snapshot(),
	}).Write(w)
}

// handleListTransactions returns the ledger newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.ledger.Recent()).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := s.ledger.Get(r.PathValue("id"))
	if !ok {
		NotFoundError("transaction not found").Write(w)
		return
	}
	NewJSONResponse().Data(tx).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := decodeTransaction(w, r, "")
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	created, err := s.ledger.Create(r.Context(), tx)
	if errors.Is(err, store.ErrDuplicateID) {
		ErrorResponse(http.StatusConflict, err.Error()).Write(w)
		return
	}
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+created.ID).
		Data(created).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := decodeTransaction(w, r, r.PathValue("id"))
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	ok, err := s.ledger.Update(r.Context(), tx)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	if !ok {
		NotFoundError("transaction not found").Write(w)
		return
	}
	NewJSONResponse().Data(tx).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.Delete(r.Context(), r.PathValue("id")) {
		NotFoundError("transaction not found").Write(w)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.ledger.Summary()).Write(w)
}

// handleDaily returns one point per day for the trailing ?days= window.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	days, ok := parseIntParam(r.URL.Query().Get("days"), services.DefaultDailyDays, maxDailyDays)
	if !ok {
		BadRequestError("days must be a whole number between 1 and 366").Write(w)
		return
	}
	NewJSONResponse().Data(s.ledger.Daily(days)).Write(w)
}

func (s *Server) handlePeriodNames(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(period.Names()).Write(w)
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	p, err := s.ledger.Period(r.PathValue("preset"))
	if errors.Is(err, period.ErrUnknownPreset) {
		NotFoundError(err.Error()).Write(w)
		return
	}
	if err != nil {
		InternalServerError("could not compute period").Write(w)
		return
	}
	NewJSONResponse().Data(p).Write(w)
}

func (s *Server) handleWeeks(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.ledger.Weeks()).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.ledger.Dashboard(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard failed", log.FieldError, err)
		InternalServerError("could not build dashboard").Write(w)
		return
	}
	NewJSONResponse().Data(d).Write(w)
}

// handleExportCSV streams the ledger in the exchange CSV format.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := exchange.ExportCSV(w, s.ledger.Transactions()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
	}
}

// importResponse reports what an upload added and which rows were skipped.
type importResponse struct {
	Added        int      `json:"added"`
	Skipped      []string `json:"skipped"`
	LegacyFormat bool     `json:"legacyFormat"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	res, err := readImport(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	skipped := make([]string, 0, len(res.Skipped))
	for _, rowErr := range res.Skipped {
		skipped = append(skipped, rowErr.Error())
	}
	added := s.ledger.Import(r.Context(), res)
	NewJSONResponse().Data(importResponse{
		Added:        added,
		Skipped:      skipped,
		LegacyFormat: res.LegacyFormat,
	}).Write(w)
}

// writeDecodeError maps body problems to 400 and domain problems to 422.
func writeDecodeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		ErrorResponse(http.StatusRequestEntityTooLarge, "request body too large").Write(w)
	case errors.Is(err, errMalformedBody):
		BadRequestError(err.Error()).Write(w)
	default:
		UnprocessableEntityError(err.Error()).Write(w)
	}
}
