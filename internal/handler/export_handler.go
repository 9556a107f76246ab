package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/service"
	"github.com/noah-isme/placement-portal-api/internal/studentfilter"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
	"github.com/noah-isme/placement-portal-api/pkg/response"
)

// RowCountHeader reports how many students an export contains.
const RowCountHeader = "X-Export-Row-Count"

type studentExporter interface {
	Export(ctx context.Context, req service.ExportRequest, actor *models.JWTClaims) (*service.ExportFile, error)
}

type exportJobService interface {
	CreateJob(ctx context.Context, req service.ExportJobRequest, actor *models.JWTClaims) (*models.ExportJob, error)
	GetJob(ctx context.Context, id string, actor *models.JWTClaims) (*models.ExportJob, error)
	ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error)
}

// ExportHandler serves synchronous exports and the background export job endpoints.
type ExportHandler struct {
	exporter studentExporter
	jobs     exportJobService
}

// NewExportHandler constructs the handler. jobs may be nil when background exports are disabled.
func NewExportHandler(exporter studentExporter, jobs exportJobService) *ExportHandler {
	return &ExportHandler{exporter: exporter, jobs: jobs}
}

type exportJobPayload struct {
	Filters map[string]string    `json:"filters"`
	Fields  []string             `json:"fields"`
	Format  models.ExportFormat  `json:"format"`
	Options models.ExportOptions `json:"options"`
}

// Export godoc
// @Summary Export filtered students
// @Description Accepts the listing filters plus a field projection. Requests above the row cap are rejected with 422.
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param fields query string true "Comma separated field keys"
// @Param format query string false "csv, excel or pdf"
// @Param short_branch query bool false "Abbreviate branch names"
// @Param separate_colleges query bool false "One section per college"
// @Param company_name query string false "Header company name"
// @Param drive_date query string false "Header drive date"
// @Param signature_column query bool false "Append a signature column (pdf)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	query := c.Request.URL.Query()
	criteria, err := studentfilter.ParseQuery(query)
	if err != nil {
		response.Error(c, err)
		return
	}
	req := service.ExportRequest{
		Criteria: criteria,
		Fields:   splitFields(query["fields"]),
		Format:   exportFormat(c.Query("format")),
		Options: models.ExportOptions{
			ShortBranch:      boolQuery(c, "short_branch"),
			SeparateColleges: boolQuery(c, "separate_colleges"),
			CompanyName:      strings.TrimSpace(c.Query("company_name")),
			DriveDate:        strings.TrimSpace(c.Query("drive_date")),
			SignatureColumn:  boolQuery(c, "signature_column"),
		},
	}
	file, err := h.exporter.Export(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Content, map[string]string{
		RowCountHeader: strconv.Itoa(file.RowCount),
	})
}

// CreateJob godoc
// @Summary Queue a background export
// @Tags Exports
// @Accept json
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/export/jobs [post]
func (h *ExportHandler) CreateJob(c *gin.Context) {
	if !h.jobsEnabled(c) {
		return
	}
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var payload exportJobPayload
	if !bindJSON(c, &payload, "invalid export job payload") {
		return
	}
	query := url.Values{}
	for key, value := range payload.Filters {
		query.Set(key, value)
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), service.ExportJobRequest{
		Query:   query,
		Fields:  splitFields(payload.Fields),
		Format:  exportFormat(string(payload.Format)),
		Options: payload.Options,
	}, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, job)
}

// GetJob godoc
// @Summary Background export status
// @Tags Exports
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/export/jobs/{id} [get]
func (h *ExportHandler) GetJob(c *gin.Context) {
	if !h.jobsEnabled(c) {
		return
	}
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export through its signed link
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if !h.jobsEnabled(c) {
		return
	}
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.jobs.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to read export file"))
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), download.ContentType, download.File, map[string]string{
		"Cache-Control":       "no-store",
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
		"Expires":             download.ExpiresAt.UTC().Format(http.TimeFormat),
		"X-Export-Expires-In": strconv.Itoa(int(time.Until(download.ExpiresAt).Seconds())),
	})
}

func (h *ExportHandler) jobsEnabled(c *gin.Context) bool {
	if h.jobs == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "background exports are disabled"))
		return false
	}
	return true
}

// splitFields accepts repeated values and comma separated lists.
func splitFields(raw []string) []string {
	var fields []string
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				fields = append(fields, trimmed)
			}
		}
	}
	return fields
}

func exportFormat(raw string) models.ExportFormat {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return models.ExportFormatCSV
	}
	return models.ExportFormat(raw)
}
