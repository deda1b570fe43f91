package mail

import (
	"html"
	"strings"

	"github.com/ignatij/logreport/pkg/models"
	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned when a summary is requested for no records.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	ReportSubject        = "API Logs Report"
	ReportAttachmentName = "ApiLogs.pdf"
	SummarySubject       = "Selected API Logs Report"
)

// ReportBody is the fixed plain-text body of the full report email.
const ReportBody = "Dear Team,\r\n\r\n" +
	"Please find attached the latest API logs report. \r\n\r\n" +
	"This report provides a comprehensive overview of API performance, including:\r\n" +
	"- Status of recent API requests\r\n" +
	"- Response times and latency\r\n" +
	"- Errors or failed requests\r\n\r\n" +
	"It is intended to help monitor system health, identify potential issues, " +
	"and support timely troubleshooting.\r\n\r\n" +
	"Should you have any questions or require further details, " +
	"please do not hesitate to reach out.\r\n\r\n" +
	"Best regards,\r\nAPI Monitoring System\r\n"

// Composer builds outbound messages for the fixed sender and recipient.
type Composer struct {
	from      models.Mailbox
	recipient string
}

func NewComposer(from models.Mailbox, recipient string) *Composer {
	return &Composer{from: from, recipient: recipient}
}

// ComposeReport builds the full-report email. An empty payload yields a
// body-only message.
func (c *Composer) ComposeReport(attachmentName string, data []byte) *models.EmailMessage {
	msg := &models.EmailMessage{
		From:     c.from,
		To:       c.recipient,
		Subject:  ReportSubject,
		Body:     ReportBody,
		BodyType: models.PlainBody,
	}
	if len(data) > 0 {
		msg.Attachment = &models.Attachment{Name: attachmentName, Data: data}
	}
	return msg
}

// ComposeSummary builds the HTML email listing records in the given order.
func (c *Composer) ComposeSummary(records []models.LogRecord) (*models.EmailMessage, error) {
	if len(records) == 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "No logs selected")
	}

	var b strings.Builder
	b.WriteString("<p>Dear Team,</p>")
	b.WriteString("<p>The following API logs have been selected:</p>")
	for _, rec := range records {
		row := models.SummaryPolicy.Apply(rec)
		b.WriteString("<p><b>API Name: " + html.EscapeString(row.APIName) + "</b><br/>")
		b.WriteString("Status: " + html.EscapeString(row.Status) + "<br/>")
		b.WriteString("Error: " + html.EscapeString(row.Error) + "<br/>")
		b.WriteString("Response Time: " + html.EscapeString(row.ResponseTime) + " ms<br/>")
		b.WriteString("Timestamp: " + html.EscapeString(row.Timestamp) + "</p>")
		b.WriteString("<hr/>")
	}
	b.WriteString("<p>This report is intended to help monitor system health and support timely troubleshooting.</p>")
	b.WriteString("<p>Best regards,<br/>API Monitoring System</p>")

	return &models.EmailMessage{
		From:     c.from,
		To:       c.recipient,
		Subject:  SummarySubject,
		Body:     b.String(),
		BodyType: models.HTMLBody,
	}, nil
}
