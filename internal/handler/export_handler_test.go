package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/service"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

type exporterMock struct {
	req service.ExportRequest
	err error
}

func (m *exporterMock) Export(ctx context.Context, req service.ExportRequest, actor *models.JWTClaims) (*service.ExportFile, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportFile{
		Filename:    "students-20240701.csv",
		ContentType: "text/csv",
		Content:     []byte("PRN,Name\nPRN1,Asha\n"),
		RowCount:    1,
	}, nil
}

type exportJobsMock struct {
	req      service.ExportJobRequest
	download *service.ExportDownload
}

func (m *exportJobsMock) CreateJob(ctx context.Context, req service.ExportJobRequest, actor *models.JWTClaims) (*models.ExportJob, error) {
	m.req = req
	return &models.ExportJob{ID: "job-1", Status: models.ExportJobQueued, RowCount: 42, CreatedBy: actor.UserID}, nil
}

func (m *exportJobsMock) GetJob(ctx context.Context, id string, actor *models.JWTClaims) (*models.ExportJob, error) {
	if id != "job-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return &models.ExportJob{ID: id, Status: models.ExportJobFinished, Progress: 100}, nil
}

func (m *exportJobsMock) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	if m.download == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	return m.download, nil
}

func TestExportHandlerStreamsFile(t *testing.T) {
	exporter := &exporterMock{}
	h := NewExportHandler(exporter, nil)

	c, w := newGinContext(http.MethodGet, "/students/export?status=approved&branch=Mechanical&fields=prn,name&fields=email&format=PDF&short_branch=true&separate_colleges=1&company_name=Acme&signature_column=true", nil)
	withClaims(c, officerClaims)
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "1", w.Header().Get(RowCountHeader))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "students-20240701.csv")
	assert.Equal(t, "PRN,Name\nPRN1,Asha\n", w.Body.String())

	assert.Equal(t, []string{"prn", "name", "email"}, exporter.req.Fields)
	assert.Equal(t, models.ExportFormatPDF, exporter.req.Format)
	assert.Equal(t, "Mechanical", exporter.req.Criteria.Branch)
	assert.Equal(t, models.ExportOptions{
		ShortBranch:      true,
		SeparateColleges: true,
		CompanyName:      "Acme",
		SignatureColumn:  true,
	}, exporter.req.Options)
}

func TestExportHandlerErrors(t *testing.T) {
	exporter := &exporterMock{err: appErrors.Clone(appErrors.ErrExportTooLarge, "12000 students match; the limit is 10000")}
	h := NewExportHandler(exporter, nil)

	c, w := newGinContext(http.MethodGet, "/students/export?fields=prn", nil)
	withClaims(c, adminClaims)
	h.Export(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, appErrors.ErrExportTooLarge.Code, decode(t, w).Error.Code)
	assert.Equal(t, models.ExportFormatCSV, exporter.req.Format)

	c, w = newGinContext(http.MethodGet, "/students/export?fields=prn&dob_from=01-01-2001", nil)
	withClaims(c, adminClaims)
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newGinContext(http.MethodPost, "/students/export/jobs", []byte(`{}`))
	withClaims(c, adminClaims)
	h.CreateJob(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportHandlerJobs(t *testing.T) {
	jobs := &exportJobsMock{}
	h := NewExportHandler(&exporterMock{}, jobs)

	body := []byte(`{"filters":{"status":"approved","cgpa_min":"8"},"fields":["prn","name"],"format":"excel","options":{"separateColleges":true}}`)
	c, w := newGinContext(http.MethodPost, "/students/export/jobs", body)
	withClaims(c, officerClaims)
	h.CreateJob(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "approved", jobs.req.Query.Get("status"))
	assert.Equal(t, "8", jobs.req.Query.Get("cgpa_min"))
	assert.Equal(t, []string{"prn", "name"}, jobs.req.Fields)
	assert.Equal(t, models.ExportFormatExcel, jobs.req.Format)
	assert.True(t, jobs.req.Options.SeparateColleges)

	c, w = newGinContext(http.MethodGet, "/students/export/jobs/nope", nil)
	c.AddParam("id", "nope")
	withClaims(c, officerClaims)
	h.GetJob(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newGinContext(http.MethodGet, "/exports/bad", nil)
	c.AddParam("token", "bad")
	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.csv")
	require.NoError(t, os.WriteFile(path, []byte("PRN\nPRN1\n"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	jobs := &exportJobsMock{download: &service.ExportDownload{
		File:        file,
		Filename:    "students.csv",
		ContentType: "text/csv",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}
	h := NewExportHandler(&exporterMock{}, jobs)

	c, w := newGinContext(http.MethodGet, "/exports/token", nil)
	c.AddParam("token", "token")
	h.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PRN\nPRN1\n", w.Body.String())
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "students.csv")
}
