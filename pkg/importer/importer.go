// Package importer loads outlets in bulk from CSV and XLSX files.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jordanlanch/fieldsales/pkg/domain"
	"github.com/jordanlanch/fieldsales/pkg/logger"
	"github.com/jordanlanch/fieldsales/pkg/models"
)

// Defaults used when Config leaves a field unset
const (
	DefaultBatchSize = 100
	DefaultMaxErrors = 50
)

// File formats
const (
	FormatCSV  = ".csv"
	FormatXLSX = ".xlsx"
)

// BulkCreator inserts outlets, skipping uids that already exist, and
// reports how many were inserted. *outlet.Service satisfies it.
type BulkCreator interface {
	BulkCreate(ctx context.Context, records []models.OutletCreateRequest) (int, error)
}

// PhoneChecker rejects unusable phone numbers. *phone.Validator satisfies it.
type PhoneChecker interface {
	Check(phone string) error
}

// Recorder receives import totals. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordImport(imported, skipped, failed int)
}

// Config controls batching and error reporting
type Config struct {
	BatchSize int
	MaxErrors int
}

// Service runs imports
type Service struct {
	outlets   BulkCreator
	phones    PhoneChecker
	validator *validator.Validate
	log       logger.Logger
	recorder  Recorder
	cfg       Config
}

// NewService creates a new import service. phones and rec may be nil.
func NewService(outlets BulkCreator, phones PhoneChecker, log logger.Logger, cfg Config, rec Recorder) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = DefaultMaxErrors
	}
	return &Service{
		outlets:   outlets,
		phones:    phones,
		validator: validator.New(),
		log:       log.With("service", "importer"),
		recorder:  rec,
		cfg:       cfg,
	}
}

// FormatOf maps a file name to a supported format
func FormatOf(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case FormatCSV, FormatXLSX:
		return ext, nil
	}
	return "", domain.NewValidationError("file must be a CSV or XLSX")
}

// Import reads r in the given format and inserts its rows
func (s *Service) Import(ctx context.Context, format string, r io.Reader) (*models.ImportResult, error) {
	var (
		table [][]string
		err   error
	)
	switch format {
	case FormatCSV:
		table, err = readCSV(r)
	case FormatXLSX:
		table, err = readXLSX(r)
	default:
		return nil, domain.NewValidationError("file must be a CSV or XLSX")
	}
	if err != nil {
		return nil, err
	}
	return s.importTable(ctx, table)
}

// ImportFile picks the format from filename
func (s *Service) ImportFile(ctx context.Context, filename string, r io.Reader) (*models.ImportResult, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, format, r)
}

// importTable treats table[0] as the header. Row numbers in messages are
// 1-based with the header as row 1, so they match a spreadsheet view.
func (s *Service) importTable(ctx context.Context, table [][]string) (*models.ImportResult, error) {
	if len(table) == 0 {
		return nil, domain.NewValidationError("file is empty")
	}

	cols, err := mapHeader(table[0])
	if err != nil {
		return nil, err
	}

	var (
		errs    []string
		records []models.OutletCreateRequest
		failed  int
	)
	for i, row := range table[1:] {
		if blank(row) {
			continue
		}
		rec, msg := s.parseRow(cols, row)
		if msg != "" {
			errs = append(errs, fmt.Sprintf("Row %d: %s", i+2, msg))
			failed++
			continue
		}
		records = append(records, rec)
	}

	imported, skipped := 0, 0
	for start, batch := 0, 1; start < len(records); start, batch = start+s.cfg.BatchSize, batch+1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk := records[start:min(start+s.cfg.BatchSize, len(records))]
		n, err := s.outlets.BulkCreate(ctx, chunk)
		if err != nil {
			// a failed batch does not stop the batches after it
			s.log.Warn("import batch failed", "batch", batch, "rows", len(chunk), "error", err)
			failed += len(chunk)
			errs = append(errs, fmt.Sprintf("Batch %d: %s", batch, batchMessage(err)))
			continue
		}
		imported += n
		skipped += len(chunk) - n
	}

	if len(errs) > s.cfg.MaxErrors {
		errs = errs[:s.cfg.MaxErrors]
	}
	if errs == nil {
		errs = []string{}
	}

	if s.recorder != nil {
		s.recorder.RecordImport(imported, skipped, failed)
	}
	s.log.Info("outlet import finished", "imported", imported, "skipped", skipped, "failed", failed)

	return &models.ImportResult{
		Success:  true,
		Imported: imported,
		Skipped:  skipped,
		Failed:   failed,
		Errors:   errs,
	}, nil
}

func (s *Service) parseRow(cols columns, row []string) (models.OutletCreateRequest, string) {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	for _, name := range requiredColumns {
		if get(name) == "" {
			return models.OutletCreateRequest{}, "Missing required fields"
		}
	}

	ids := make(map[string]int, 4)
	for _, name := range []string{"regionid", "areaid", "distributorid", "territoryid"} {
		v, err := strconv.Atoi(get(name))
		if err != nil {
			return models.OutletCreateRequest{}, "Invalid numeric values"
		}
		ids[name] = v
	}

	points := 0
	if raw := get("points"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return models.OutletCreateRequest{}, "Invalid numeric values"
		}
		points = v
	}

	rec := models.OutletCreateRequest{
		UID:           get("uid"),
		Name:          get("name"),
		Phone:         get("phone"),
		RegionID:      ids["regionid"],
		AreaID:        ids["areaid"],
		DistributorID: ids["distributorid"],
		TerritoryID:   ids["territoryid"],
		Points:        points,
		Routes:        get("routes"),
		Notes:         get("notes"),
	}

	if err := s.validator.Struct(rec); err != nil {
		return models.OutletCreateRequest{}, describe(err)
	}
	if s.phones != nil {
		if err := s.phones.Check(rec.Phone); err != nil {
			return models.OutletCreateRequest{}, "Invalid phone number"
		}
	}
	return rec, ""
}

// describe turns the first validation failure into a short message
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("%s exceeds %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func batchMessage(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
