package service

import (
	"context"
	"strings"
	"time"

	"github.com/ignatij/logreport/pkg/mail"
	"github.com/ignatij/logreport/pkg/models"
	"github.com/ignatij/logreport/pkg/storage"
)

// Logger defines the logging interface for ReportService
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Renderer turns ordered records into report bytes.
type Renderer interface {
	Render(records []models.LogRecord) ([]byte, error)
}

// Sender delivers one message per call.
type Sender interface {
	Send(ctx context.Context, msg *models.EmailMessage) error
}

// Observer is notified once per flow run.
type Observer interface {
	ObserveFlow(flow string, success bool, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveFlow(string, bool, time.Duration) {}

// Flow names reported to the Observer.
const (
	FlowFullReport     = "full_report"
	FlowSelectedReport = "selected_report"
	FlowDownload       = "download"
)

// Outcome messages shown to the user.
const (
	MsgReportSent      = "Report sent successfully"
	MsgReportFailed    = "Error sending report: "
	MsgNothingSelected = "Please select at least one API log to send."
	MsgNoMatchingLogs  = "No logs found for the selected IDs."
	MsgSelectedSent    = "Selected logs have been sent via email successfully!"
	MsgSelectedFailed  = "Error sending email: "
)

// ReportService wires retrieval, rendering, composition and delivery into
// the report flows. It keeps no state between calls.
type ReportService struct {
	store    storage.LogStore
	renderer Renderer
	composer *mail.Composer
	sender   Sender
	logger   Logger
	observer Observer
}

type Option func(*ReportService)

func WithObserver(o Observer) Option {
	return func(s *ReportService) {
		s.observer = o
	}
}

func NewReportService(store storage.LogStore, renderer Renderer, composer *mail.Composer, sender Sender, logger Logger, opts ...Option) *ReportService {
	s := &ReportService{
		store:    store,
		renderer: renderer,
		composer: composer,
		sender:   sender,
		logger:   logger,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecentLogs fetches the latest window of logs, newest first.
func (s *ReportService) RecentLogs(ctx context.Context) ([]models.LogRecord, error) {
	records, err := s.store.FetchRecent(ctx, storage.RecentLimit)
	if err != nil {
		return nil, err
	}
	models.SortByTimestampDesc(records)
	return records, nil
}

// TestConnection reports whether the log backend is reachable.
func (s *ReportService) TestConnection(ctx context.Context) string {
	return s.store.TestConnection(ctx)
}

// DownloadReport renders the recent logs without sending anything.
func (s *ReportService) DownloadReport(ctx context.Context) (pdf []byte, err error) {
	start := time.Now()
	defer func() { s.observer.ObserveFlow(FlowDownload, err == nil, time.Since(start)) }()
	return s.renderRecent(ctx)
}

func (s *ReportService) renderRecent(ctx context.Context) ([]byte, error) {
	records, err := s.RecentLogs(ctx)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.Render(records)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Rendered report with %d logs (%d bytes)", len(records), len(pdf))
	return pdf, nil
}

// SendFullReport emails the rendered report of all recent logs as an
// attachment. Failures are returned as an unsuccessful Outcome.
func (s *ReportService) SendFullReport(ctx context.Context) (out models.Outcome) {
	start := time.Now()
	defer func() { s.observer.ObserveFlow(FlowFullReport, out.Success, time.Since(start)) }()

	pdf, err := s.renderRecent(ctx)
	if err != nil {
		return s.fail(FlowFullReport, MsgReportFailed, err)
	}
	msg := s.composer.ComposeReport(mail.ReportAttachmentName, pdf)
	if err := s.sender.Send(ctx, msg); err != nil {
		return s.fail(FlowFullReport, MsgReportFailed, err)
	}
	s.logger.Infof("Full report sent to %s", msg.To)
	return models.Succeeded(MsgReportSent)
}

// SendSelectedReport emails an HTML summary of the recent logs whose IDs are
// in ids. The store is not queried when ids is empty.
func (s *ReportService) SendSelectedReport(ctx context.Context, ids []string) (out models.Outcome) {
	start := time.Now()
	defer func() { s.observer.ObserveFlow(FlowSelectedReport, out.Success, time.Since(start)) }()

	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		return models.Failed(MsgNothingSelected)
	}

	records, err := s.RecentLogs(ctx)
	if err != nil {
		return s.fail(FlowSelectedReport, MsgSelectedFailed, err)
	}
	selected := models.FilterByIDs(records, ids)
	if len(selected) == 0 {
		s.logger.Infof("None of %d selected IDs found among %d recent logs", len(ids), len(records))
		return models.Failed(MsgNoMatchingLogs)
	}

	msg, err := s.composer.ComposeSummary(selected)
	if err != nil {
		return s.fail(FlowSelectedReport, MsgSelectedFailed, err)
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return s.fail(FlowSelectedReport, MsgSelectedFailed, err)
	}
	s.logger.Infof("Sent %d selected logs to %s", len(selected), msg.To)
	return models.Succeeded(MsgSelectedSent)
}

func (s *ReportService) fail(flow, prefix string, err error) models.Outcome {
	s.logger.Errorf("Flow %s failed: %v", flow, err)
	return models.Failed(prefix + err.Error())
}

// normalizeIDs drops blank and duplicate ids.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
