package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ignatij/logreport/internal/log"
	"github.com/ignatij/logreport/pkg/mail"
	"github.com/ignatij/logreport/pkg/models"
	"github.com/ignatij/logreport/pkg/report"
)

const indexPath = "/logs"

type handlers struct {
	svc Reporter
}

type indexRow struct {
	ID string
	models.DisplayRow
}

func (h *handlers) health(c *gin.Context) {
	c.String(http.StatusOK, "Log report server is running")
}

func (h *handlers) index(c *gin.Context) {
	success, failure := takeFlash(c)

	records, err := h.svc.RecentLogs(c.Request.Context())
	if err != nil {
		log.GetLogger().Errorf("Failed to load logs: %v", err)
		failure = err.Error()
	}
	rows := make([]indexRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, indexRow{ID: rec.ID, DisplayRow: models.TablePolicy.Apply(rec)})
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Columns": report.Columns,
		"Rows":    rows,
		"Success": success,
		"Error":   failure,
	})
}

func (h *handlers) test(c *gin.Context) {
	c.String(http.StatusOK, h.svc.TestConnection(c.Request.Context()))
}

func (h *handlers) download(c *gin.Context) {
	pdf, err := h.svc.DownloadReport(c.Request.Context())
	if err != nil {
		log.GetLogger().Errorf("Failed to build report: %v", err)
		c.String(http.StatusBadGateway, "Failed to build report: %v", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+mail.ReportAttachmentName+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *handlers) sendReport(c *gin.Context) {
	setFlash(c, h.svc.SendFullReport(c.Request.Context()))
	c.Redirect(http.StatusSeeOther, indexPath)
}

func (h *handlers) sendLogsReport(c *gin.Context) {
	ids := c.PostFormArray("selectedLogs")
	setFlash(c, h.svc.SendSelectedReport(c.Request.Context(), ids))
	c.Redirect(http.StatusSeeOther, indexPath)
}
