package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"leadboard_backend/internal/crm"
	"leadboard_backend/internal/events"
	"leadboard_backend/platform/apperr"
)

// maxImportSize caps how much of an upload is buffered before forwarding.
const maxImportSize = 10 << 20

// ImportCSV validates and forwards a CSV upload, then refreshes the board so
// imported leads appear without waiting for the next poll.
//
// The extension guard runs before any network work; a wrong file type is a
// local validation error, never an upstream round trip. Row-level accounting
// (created, duplicates, per-row errors) comes from the remote backend; the
// detail arrays are logged here and summarized for the caller, not surfaced
// row by row.
func (s *Service) ImportCSV(ctx context.Context, filename string, file io.Reader) (crm.ImportSummary, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return crm.ImportSummary{}, apperr.Validation("only .csv files are accepted")
	}

	buf, err := io.ReadAll(io.LimitReader(file, maxImportSize+1))
	if err != nil {
		return crm.ImportSummary{}, apperr.Wrap(apperr.KindBadRequest, "reading upload failed", err)
	}
	if len(buf) > maxImportSize {
		return crm.ImportSummary{}, apperr.Validation("file exceeds the 10MB import limit")
	}
	if err := checkCSVShape(buf); err != nil {
		return crm.ImportSummary{}, err
	}

	summary, err := s.gateway.ImportCSV(ctx, filename, bytes.NewReader(buf))
	if err != nil {
		return crm.ImportSummary{}, err
	}

	if len(summary.ErrorDetails) > 0 {
		s.log.Warn("csv import row errors", "filename", filename, "count", summary.Errors, "details", summary.ErrorDetails)
	}
	if len(summary.DuplicateDetails) > 0 {
		s.log.Info("csv import duplicates skipped", "filename", filename, "count", summary.Duplicates, "details", summary.DuplicateDetails)
	}

	s.bus.Publish(ctx, events.LeadsImported{
		BaseEvent:  events.NewBaseEvent(),
		TotalRows:  summary.TotalRows,
		Created:    summary.Created,
		Duplicates: summary.Duplicates,
		Errors:     summary.Errors,
	})

	// Silent refresh so the new rows land in the collection.
	go func() {
		if _, err := s.Sync(context.WithoutCancel(ctx), false); err != nil {
			s.log.Warn("post-import refresh failed", "error", err)
		}
	}()

	return summary, nil
}

// checkCSVShape rejects uploads that cannot possibly be a lead sheet: empty
// files and files whose first record does not parse as CSV. Full row
// validation stays with the remote backend.
func checkCSVShape(buf []byte) error {
	if len(bytes.TrimSpace(buf)) == 0 {
		return apperr.Validation("file is empty")
	}

	reader := csv.NewReader(bytes.NewReader(buf))
	reader.FieldsPerRecord = -1
	if _, err := reader.Read(); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("file is not valid CSV")
	}
	return nil
}
