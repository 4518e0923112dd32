// Package http provides the JSON API over the ledger.
//
// This file implements utilities for reading and validating request bodies.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/exchange"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 10 << 20

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// errMalformedBody marks bodies that are not valid JSON for the endpoint.
var errMalformedBody = errors.New("malformed request body")

// decodeTransaction reads one JSON record from the body. A non-empty id
// overrides any id in the body.
func decodeTransaction(w http.ResponseWriter, r *http.Request, id string) (core.Transaction, error) {
	var rec core.Record
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", errMalformedBody, err)
	}
	if id != "" {
		rec.ID = id
	}
	rec.ID = strings.TrimSpace(rec.ID)
	rec.Category = sanitizeInput(rec.Category)
	rec.Description = sanitizeInput(rec.Description)
	return rec.Transaction()
}

// importFormat picks the exchange format from ?format= or the Content-Type.
func importFormat(r *http.Request) string {
	if f := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))); f != "" {
		return f
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == contentTypeXLSX {
		return "xlsx"
	}
	return "csv"
}

// readImport parses an uploaded CSV or XLSX body.
func readImport(w http.ResponseWriter, r *http.Request) (exchange.ImportResult, error) {
	body := io.Reader(http.MaxBytesReader(w, r.Body, maxImportBytes))
	switch importFormat(r) {
	case "csv":
		return exchange.ImportCSV(body, nil)
	case "xlsx":
		return exchange.ImportXLSX(body, nil)
	default:
		return exchange.ImportResult{}, fmt.Errorf("%w: unknown import format %q", errMalformedBody, r.URL.Query().Get("format"))
	}
}
