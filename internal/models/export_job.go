package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ExportFormat enumerates supported student export formats.
type ExportFormat string

const (
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatExcel ExportFormat = "excel"
	ExportFormatPDF   ExportFormat = "pdf"
)

// Valid reports whether the format has a renderer.
func (f ExportFormat) Valid() bool {
	switch f {
	case ExportFormatCSV, ExportFormatExcel, ExportFormatPDF:
		return true
	}
	return false
}

// Extension returns the file extension for the format.
func (f ExportFormat) Extension() string {
	if f == ExportFormatExcel {
		return "xlsx"
	}
	return string(f)
}

// ContentType returns the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportFormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

// ExportOptions tunes the rendered document.
type ExportOptions struct {
	ShortBranch      bool   `json:"shortBranch,omitempty"`
	SeparateColleges bool   `json:"separateColleges,omitempty"`
	CompanyName      string `json:"companyName,omitempty"`
	DriveDate        string `json:"driveDate,omitempty"`
	SignatureColumn  bool   `json:"signatureColumn,omitempty"`
}

// ExportJobStatus captures background export lifecycle states.
type ExportJobStatus string

const (
	ExportJobQueued     ExportJobStatus = "QUEUED"
	ExportJobProcessing ExportJobStatus = "PROCESSING"
	ExportJobFinished   ExportJobStatus = "FINISHED"
	ExportJobFailed     ExportJobStatus = "FAILED"
	ExportJobExpired    ExportJobStatus = "EXPIRED"
)

// ExportJob persisted background export metadata.
type ExportJob struct {
	ID           string          `db:"id" json:"id"`
	Params       ExportJobParams `db:"params" json:"params"`
	Status       ExportJobStatus `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	RowCount     int             `db:"row_count" json:"row_count"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ExportJobParams stores the request that produced a job, persisted as JSONB.
// Query holds the raw filter parameters so the worker resolves them like a live request.
type ExportJobParams struct {
	Query     map[string][]string `json:"query"`
	Fields    []string            `json:"fields"`
	Format    ExportFormat        `json:"format"`
	Options   ExportOptions       `json:"options"`
	ActorRole UserRole            `json:"actorRole"`
	CollegeID string              `json:"collegeId,omitempty"`
}

// Value marshals params to JSON for persistence.
func (p ExportJobParams) Value() (driver.Value, error) {
	if p.Query == nil {
		p.Query = map[string][]string{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export job params: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the params struct.
func (p *ExportJobParams) Scan(value interface{}) error {
	if value == nil {
		*p = ExportJobParams{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ExportJobParams", value)
	}
	if len(data) == 0 {
		*p = ExportJobParams{}
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal export job params: %w", err)
	}
	return nil
}
