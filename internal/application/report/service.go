// Package report generates the printable and exportable views of the
// register: history, receipts, project sheets, debt journals and the
// delivery, purchase and mission documents.
package report

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	debtapp "github.com/ech/backend/internal/application/debt"
	docapp "github.com/ech/backend/internal/application/document"
	ledgerapp "github.com/ech/backend/internal/application/ledger"
	projectapp "github.com/ech/backend/internal/application/project"
	"github.com/ech/backend/internal/domain/ledger"
	"github.com/ech/backend/internal/domain/project"
	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/printing"
	"github.com/ech/backend/internal/infrastructure/storage"
	"github.com/ech/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContentTypePDF is the MIME type of rendered reports
const ContentTypePDF = "application/pdf"

// LedgerReader reads the register
type LedgerReader interface {
	Balance(ctx context.Context) (*ledgerapp.BalanceView, error)
	GetOperation(ctx context.Context, id uuid.UUID) (*ledgerapp.OperationView, error)
	ListOperations(ctx context.Context, filter ledger.OperationFilter) (*shared.Paginated[ledgerapp.OperationView], error)
	ListHistory(ctx context.Context, filter ledger.HistoryFilter) (*shared.Paginated[ledgerapp.HistoryView], error)
}

// ProjectReader reads projects and their finance reports
type ProjectReader interface {
	Get(ctx context.Context, id uuid.UUID) (*projectapp.ProjectView, error)
	ListRevenues(ctx context.Context, filter project.RevenueFilter) ([]projectapp.RevenueView, error)
	FinanceReport(ctx context.Context, in projectapp.FinanceReportInput) (*projectapp.FinanceReport, error)
}

// DebtReader builds debt journals
type DebtReader interface {
	Journal(ctx context.Context, id uuid.UUID) (*debtapp.Journal, error)
}

// DocumentStore reads documents and records delivery note PDF activity
type DocumentStore interface {
	GetDeliveryNote(ctx context.Context, id uuid.UUID) (*docapp.DeliveryNoteView, error)
	RecordPDFGenerated(ctx context.Context, id uuid.UUID, key string, userID *uuid.UUID) error
	RecordPDFDownloaded(ctx context.Context, id uuid.UUID, userID *uuid.UUID) error
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*docapp.PurchaseOrderView, error)
	GetMissionOrder(ctx context.Context, id uuid.UUID) (*docapp.MissionOrderView, error)
}

// Requester identifies who asked for a report
type Requester struct {
	UserID *uuid.UUID
	Name   string
}

// File is a generated report. URL is set when the file was archived.
type File struct {
	Name        string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	Pages       int       `json:"pages,omitempty"`
	Key         string    `json:"key,omitempty"`
	URL         string    `json:"url,omitempty"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// Config holds report settings
type Config struct {
	Organization string
	// ArchiveReports uploads every generated file, not only delivery notes
	ArchiveReports bool
}

// Service renders reports. Rendering only reads: a failure never touches
// the ledger.
type Service struct {
	ledger    LedgerReader
	projects  ProjectReader
	debts     DebtReader
	documents DocumentStore
	engine    *printing.TemplateEngine
	renderer  printing.PDFRenderer
	archive   storage.Archive
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

// Deps groups the collaborators of the report service
type Deps struct {
	Ledger    LedgerReader
	Projects  ProjectReader
	Debts     DebtReader
	Documents DocumentStore
	Engine    *printing.TemplateEngine
	Renderer  printing.PDFRenderer
	// Archive is optional
	Archive storage.Archive
}

// NewService creates a report service
func NewService(deps Deps, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Organization == "" {
		cfg.Organization = "Caisse"
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = printing.DisabledRenderer{}
	}
	return &Service{
		ledger:    deps.Ledger,
		projects:  deps.Projects,
		debts:     deps.Debts,
		documents: deps.Documents,
		engine:    deps.Engine,
		renderer:  renderer,
		archive:   deps.Archive,
		cfg:       cfg,
		logger:    logger.With(zap.String("component", "report")),
		now:       time.Now,
	}
}

// newDocument starts a document with the common header and footer
func (s *Service) newDocument(title string, by Requester) *printing.Document {
	return &printing.Document{
		Organization: s.cfg.Organization,
		Title:        title,
		GeneratedAt:  s.now(),
		GeneratedBy:  by.Name,
	}
}

// renderPDF turns a document into a PDF file
func (s *Service) renderPDF(ctx context.Context, doc *printing.Document, name string) (*File, error) {
	html, err := s.engine.RenderDocument(doc)
	if err != nil {
		return nil, err
	}
	return s.print(ctx, html, doc.Title, doc.Landscape, name)
}

func layout(landscape bool) string {
	if landscape {
		return "landscape"
	}
	return "portrait"
}

func (s *Service) print(ctx context.Context, html, title string, landscape bool, name string) (*File, error) {
	var (
		result *printing.RenderResult
		err    error
	)
	telemetry.Profile(ctx, func(ctx context.Context) {
		result, err = s.renderer.Render(ctx, &printing.RenderRequest{
			HTML:       html,
			Title:      title,
			Landscape:  landscape,
			FooterHTML: printing.PageFooter,
		})
	}, "region", "pdf_render", "layout", layout(landscape))
	if err != nil {
		s.logger.Warn("Report rendering failed", zap.String("file", name), zap.Error(err))
		return nil, err
	}
	return &File{
		Name:        name,
		ContentType: ContentTypePDF,
		Data:        result.PDFData,
		Pages:       result.PageCount,
	}, nil
}

// publish archives a generated report when configured. Archive failures
// are logged; the caller still gets the file content.
func (s *Service) publish(ctx context.Context, f *File, folder string) {
	if s.archive == nil || !s.cfg.ArchiveReports {
		return
	}
	key := path.Join("reports", folder, s.now().Format("2006/01"), f.Name)
	if err := s.upload(ctx, f, key); err != nil {
		s.logger.Warn("Report archive failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) upload(ctx context.Context, f *File, key string) error {
	if err := s.archive.Put(ctx, key, f.Data, f.ContentType); err != nil {
		return err
	}
	url, expires, err := s.archive.DownloadURL(ctx, key)
	if err != nil {
		return err
	}
	f.Key, f.URL, f.ExpiresAt = key, url, expires
	return nil
}

// fileName builds "<prefix>_<stamp>.<ext>" with a filesystem safe prefix
func (s *Service) fileName(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", safeName(prefix), s.now().Format("20060102_150405"), ext)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '/' || r == '.':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "document"
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func formatCount(n int) string {
	return strconv.Itoa(n)
}
