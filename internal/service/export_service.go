package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rentflow-api/internal/dto"
	"github.com/noah-isme/rentflow-api/internal/models"
	appErrors "github.com/noah-isme/rentflow-api/pkg/errors"
	"github.com/noah-isme/rentflow-api/pkg/export"
)

type ledgerReader interface {
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	ListHandovers(ctx context.Context) ([]models.CashHandover, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered statement ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders payment and handover statements.
type ExportService struct {
	ledger ledgerReader
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(ledger ledgerReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{ledger: ledger, csv: csv, pdf: pdf, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ExportPayments renders payments matching the query.
func (s *ExportService) ExportPayments(ctx context.Context, query dto.LedgerExportQuery) (*ExportFile, error) {
	format, err := normalizeFormat(query.Format)
	if err != nil {
		return nil, err
	}
	payments, err := s.ledger.ListPayments(ctx, models.PaymentFilter{HouseID: query.HouseID, TenantID: query.TenantID})
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:   "Rent payments",
		Headers: []string{"Date", "Payment", "House", "Tenant", "Method", "Recorded by", "Amount"},
		Numeric: map[string]bool{"Amount": true},
	}
	var total float64
	for _, p := range payments {
		total += p.Amount
		data.Rows = append(data.Rows, map[string]string{
			"Date":        p.Date.Format("2006-01-02"),
			"Payment":     p.ID,
			"House":       p.HouseID,
			"Tenant":      p.TenantID,
			"Method":      string(p.Method),
			"Recorded by": p.RecordedBy,
			"Amount":      formatAmount(p.Amount),
		})
	}
	data.Footer = map[string]string{"Date": "Total", "Payment": fmt.Sprintf("%d payments", len(payments)), "Amount": formatAmount(total)}
	if query.HouseID != "" {
		data.Title += " - house " + query.HouseID
	}
	return s.render("payments", format, data)
}

// ExportHandovers renders every cash handover.
func (s *ExportService) ExportHandovers(ctx context.Context, query dto.LedgerExportQuery) (*ExportFile, error) {
	format, err := normalizeFormat(query.Format)
	if err != nil {
		return nil, err
	}
	handovers, err := s.ledger.ListHandovers(ctx)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Title:   "Cash handovers",
		Headers: []string{"Timestamp", "Handover", "Handed over by", "Received by", "Note", "Amount"},
		Numeric: map[string]bool{"Amount": true},
	}
	var total float64
	for _, h := range handovers {
		total += h.Amount
		data.Rows = append(data.Rows, map[string]string{
			"Timestamp":      h.Timestamp.Format(time.RFC3339),
			"Handover":       h.ID,
			"Handed over by": h.HandedOverBy,
			"Received by":    h.ReceivedBy,
			"Note":           h.Note,
			"Amount":         formatAmount(h.Amount),
		})
	}
	data.Footer = map[string]string{"Timestamp": "Total", "Handover": fmt.Sprintf("%d handovers", len(handovers)), "Amount": formatAmount(total)}
	return s.render("handovers", format, data)
}

func (s *ExportService) render(name, format string, data export.Dataset) (*ExportFile, error) {
	filename := fmt.Sprintf("%s-%s.%s", name, s.now().Format("20060102-150405"), format)
	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case "pdf":
		body, err = s.pdf.Render(data)
		contentType = "application/pdf"
	default:
		body, err = s.csv.Render(data)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
	}
	s.logger.Info("ledger statement rendered", zap.String("file", filename), zap.Int("rows", len(data.Rows)))
	return &ExportFile{Filename: filename, ContentType: contentType, Body: body}, nil
}

func normalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", "csv":
		return "csv", nil
	case "pdf":
		return "pdf", nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+format)
	}
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
