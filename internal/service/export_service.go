package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/committee-api/internal/models"
	appErrors "github.com/noah-isme/committee-api/pkg/errors"
	"github.com/noah-isme/committee-api/pkg/export"
	"github.com/noah-isme/committee-api/pkg/storage"
)

// ExportFormat enumerates supported roster export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// Valid reports whether the format is supported.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatPDF
}

type exportCommitteeReader interface {
	CurrentAssignments(ctx context.Context) ([]models.AssignmentDetail, error)
	State(ctx context.Context) (*models.CommitteeState, error)
}

type exportArchiveReader interface {
	ListByNumber(ctx context.Context, number string) ([]models.PreviousCommitteeMember, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders committee rosters into downloadable CSV and PDF
// files with signed, expiring download URLs.
type ExportService struct {
	committee exportCommitteeReader
	archive   exportArchiveReader
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(committee exportCommitteeReader, archive exportArchiveReader, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		committee: committee,
		archive:   archive,
		storage:   store,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
	}
}

// ExportCurrent renders the published committee roster.
func (s *ExportService) ExportCurrent(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	assignments, err := s.committee.CurrentAssignments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current committee")
	}
	if len(assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no committee is currently published")
	}
	state, err := s.committee.State(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load committee state")
	}

	dataset := currentDataset(assignments)
	title := fmt.Sprintf("Committee %s", state.CurrentNumber)
	return s.render(dataset, title, "current_"+state.CurrentNumber, format)
}

// ExportPrevious renders an archived committee roster.
func (s *ExportService) ExportPrevious(ctx context.Context, number string, format ExportFormat) (*ExportResult, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	members, err := s.archive.ListByNumber(ctx, number)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load previous committee")
	}
	if len(members) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no archived committee %s", number))
	}

	dataset := previousDataset(members)
	title := fmt.Sprintf("Committee %s (archived)", number)
	return s.render(dataset, title, "previous_"+number, format)
}

func (s *ExportService) render(dataset export.Dataset, title, scope string, format ExportFormat) (*ExportResult, error) {
	var payload []byte
	var err error
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := buildFilename(scope, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(scope, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Info("roster exported",
		zap.String("scope", scope),
		zap.String("format", string(format)),
		zap.String("file", relPath))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string) (scope, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, false)
}

// Open returns a handle to a stored export file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes export files older than the configured TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

func buildFilename(scope string, format ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	return fmt.Sprintf("committee_%s_%s.%s", replacer.Replace(scope), timestamp, format)
}

func currentDataset(assignments []models.AssignmentDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(assignments))
	for _, assignment := range assignments {
		rows = append(rows, map[string]string{
			"Order":        fmt.Sprintf("%d", assignment.MemberOrder),
			"Name":         assignment.UserName,
			"Email":        assignment.UserEmail,
			"Designation":  assignment.DesignationName,
			"Tenure Start": assignment.TenureStart.Format("2006-01-02"),
		})
	}
	return export.Dataset{
		Headers: []string{"Order", "Name", "Email", "Designation", "Tenure Start"},
		Rows:    rows,
	}
}

func previousDataset(members []models.PreviousCommitteeMember) export.Dataset {
	rows := make([]map[string]string, 0, len(members))
	for _, member := range members {
		tenureEnd := ""
		if member.TenureEnd != nil {
			tenureEnd = member.TenureEnd.Format("2006-01-02")
		}
		rows = append(rows, map[string]string{
			"Order":        fmt.Sprintf("%d", member.MemberOrder),
			"Name":         member.Name,
			"Email":        member.Email,
			"Designation":  member.DesignationTitle,
			"Tenure Start": member.TenureStart.Format("2006-01-02"),
			"Tenure End":   tenureEnd,
		})
	}
	return export.Dataset{
		Headers: []string{"Order", "Name", "Email", "Designation", "Tenure Start", "Tenure End"},
		Rows:    rows,
	}
}
