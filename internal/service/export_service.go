package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/placement-portal-api/internal/models"
	"github.com/noah-isme/placement-portal-api/internal/studentfilter"
	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
	"github.com/noah-isme/placement-portal-api/pkg/export"
	"github.com/noah-isme/placement-portal-api/pkg/middleware/requestid"
)

type exportStudentStore interface {
	Count(ctx context.Context, plan studentfilter.Plan) (int, error)
	ListAll(ctx context.Context, plan studentfilter.Plan, limit int) ([]models.Student, error)
}

type sectionRenderer interface {
	RenderSections(sections []export.Section, opts export.DocumentOptions) ([]byte, error)
}

// ExportOutcomeSuccess labels exports that produced a document. Failures are labelled by error code.
const ExportOutcomeSuccess = "success"

type exportObserver interface {
	ObserveExport(format, outcome string, rows int)
}

// BranchNamer abbreviates branch names for compact exports.
type BranchNamer interface {
	ShortName(branch string) string
}

// BranchShortNames is a case insensitive branch abbreviation table. Unknown branches keep their name.
type BranchShortNames map[string]string

// NewBranchShortNames normalises keys of a configured abbreviation table.
func NewBranchShortNames(table map[string]string) BranchShortNames {
	names := make(BranchShortNames, len(table))
	for long, short := range table {
		names[strings.ToLower(strings.TrimSpace(long))] = strings.TrimSpace(short)
	}
	return names
}

// ShortName implements BranchNamer.
func (b BranchShortNames) ShortName(branch string) string {
	if short, ok := b[strings.ToLower(strings.TrimSpace(branch))]; ok && short != "" {
		return short
	}
	return branch
}

type exportField struct {
	header string
	value  func(s *models.Student) string
}

var exportFields = map[string]exportField{
	"prn":                 {"PRN", func(s *models.Student) string { return s.PRN }},
	"name":                {"Name", func(s *models.Student) string { return s.Name }},
	"email":               {"Email", func(s *models.Student) string { return s.Email }},
	"mobile_number":       {"Mobile Number", func(s *models.Student) string { return s.MobileNumber }},
	"date_of_birth":       {"Date of Birth", func(s *models.Student) string { return s.DateOfBirth.Format(studentfilter.DateLayout) }},
	"gender":              {"Gender", func(s *models.Student) string { return s.Gender }},
	"height":              {"Height (cm)", func(s *models.Student) string { return formatNumber(s.Height) }},
	"weight":              {"Weight (kg)", func(s *models.Student) string { return formatNumber(s.Weight) }},
	"branch":              {"Branch", func(s *models.Student) string { return s.Branch }},
	"college_name":        {"College", func(s *models.Student) string { return s.CollegeName }},
	"region_name":         {"Region", func(s *models.Student) string { return s.RegionName }},
	"district":            {"District", func(s *models.Student) string { return s.District }},
	"programme_cgpa":      {"Programme CGPA", func(s *models.Student) string { return fmt.Sprintf("%.2f", s.ProgrammeCGPA) }},
	"backlog_count":       {"Backlogs", func(s *models.Student) string { return strconv.Itoa(s.BacklogCount) }},
	"has_driving_license": {"Driving License", func(s *models.Student) string { return yesNo(s.HasDrivingLicense) }},
	"has_pan":             {"PAN", func(s *models.Student) string { return yesNo(s.HasPAN) }},
	"has_aadhar":          {"Aadhar", func(s *models.Student) string { return yesNo(s.HasAadhar) }},
	"has_passport":        {"Passport", func(s *models.Student) string { return yesNo(s.HasPassport) }},
	"registration_status": {"Status", func(s *models.Student) string { return string(s.RegistrationStatus) }},
	"is_blacklisted":      {"Blacklisted", func(s *models.Student) string { return yesNo(s.IsBlacklisted) }},
	"created_at":          {"Registered At", func(s *models.Student) string { return s.CreatedAt.UTC().Format("2006-01-02 15:04") }},
}

func init() {
	for i := 0; i < models.SemesterCount; i++ {
		sem := i
		exportFields[fmt.Sprintf("cgpa_sem%d", sem+1)] = exportField{
			header: fmt.Sprintf("CGPA Sem %d", sem+1),
			value: func(s *models.Student) string {
				if v := *s.SemesterCGPAs()[sem]; v != nil {
					return fmt.Sprintf("%.2f", *v)
				}
				return ""
			},
		}
		exportFields[fmt.Sprintf("backlogs_sem%d", sem+1)] = exportField{
			header: fmt.Sprintf("Backlogs Sem %d", sem+1),
			value: func(s *models.Student) string {
				return strconv.Itoa(*s.SemesterBacklogs()[sem])
			},
		}
	}
}

// ExportFieldKeys lists the selectable export columns in a stable order.
func ExportFieldKeys() []string {
	keys := make([]string, 0, len(exportFields))
	for key := range exportFields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ExportRequest describes one student export.
type ExportRequest struct {
	Criteria studentfilter.Criteria
	Fields   []string
	Format   models.ExportFormat
	Options  models.ExportOptions
}

// ExportFile is a rendered export ready to be served or stored.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
	RowCount    int
}

// ExportServiceConfig tunes export limits and defaults.
type ExportServiceConfig struct {
	MaxRows        int
	DefaultCompany string
}

// ExportService renders filtered student lists as CSV, Excel or PDF documents.
// Exports use the same predicate as the paginated listing without slicing.
type ExportService struct {
	repo      exportStudentStore
	branches  BranchNamer
	renderers map[models.ExportFormat]sectionRenderer
	metrics   exportObserver
	activity  ActivityRecorder
	logger    *zap.Logger
	cfg       ExportServiceConfig
	now       func() time.Time
}

// ExportServiceOption customises the export service.
type ExportServiceOption func(*ExportService)

// WithExportRenderer overrides the renderer used for a format.
func WithExportRenderer(format models.ExportFormat, renderer sectionRenderer) ExportServiceOption {
	return func(s *ExportService) {
		if renderer != nil {
			s.renderers[format] = renderer
		}
	}
}

// WithExportMetrics records export outcomes.
func WithExportMetrics(metrics exportObserver) ExportServiceOption {
	return func(s *ExportService) {
		s.metrics = metrics
	}
}

// WithExportActivity records successful exports on the activity trail.
func WithExportActivity(activity ActivityRecorder) ExportServiceOption {
	return func(s *ExportService) {
		if activity != nil {
			s.activity = activity
		}
	}
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportStudentStore, branches BranchNamer, cfg ExportServiceConfig, logger *zap.Logger, opts ...ExportServiceOption) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if branches == nil {
		branches = BranchShortNames{}
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 10000
	}
	svc := &ExportService{
		repo:     repo,
		branches: branches,
		renderers: map[models.ExportFormat]sectionRenderer{
			models.ExportFormatCSV:   export.NewCSVExporter(),
			models.ExportFormatExcel: export.NewExcelExporter(),
			models.ExportFormatPDF:   export.NewPDFExporter(),
		},
		activity: noopRecorder{},
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// MaxRows returns the export cap.
func (s *ExportService) MaxRows() int {
	return s.cfg.MaxRows
}

type preparedExport struct {
	plan    studentfilter.Plan
	fields  []string
	format  models.ExportFormat
	options models.ExportOptions
}

// Check validates a request and enforces the row cap without rendering. It returns the
// number of matching students.
func (s *ExportService) Check(ctx context.Context, req ExportRequest, actor *models.JWTClaims) (int, error) {
	prepared, err := s.prepare(req, actor)
	if err != nil {
		return 0, err
	}
	return s.count(ctx, prepared)
}

// Export validates, queries and renders a student export.
func (s *ExportService) Export(ctx context.Context, req ExportRequest, actor *models.JWTClaims) (*ExportFile, error) {
	prepared, err := s.prepare(req, actor)
	if err != nil {
		return nil, err
	}
	file, err := s.render(ctx, prepared)
	outcome := ExportOutcomeSuccess
	rows := 0
	if err != nil {
		outcome = appErrors.FromError(err).Code
	} else {
		rows = file.RowCount
	}
	if s.metrics != nil {
		s.metrics.ObserveExport(string(prepared.format), outcome, rows)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("students exported",
		zap.String("format", string(prepared.format)),
		zap.Int("rows", file.RowCount),
		zap.String("actor_id", actor.UserID),
		zap.String("request_id", requestid.FromContext(ctx)))
	s.activity.Record(ctx, actor, models.ActivityStudentsExported, "student_export", "",
		fmt.Sprintf("format=%s rows=%d", prepared.format, file.RowCount))
	return file, nil
}

func (s *ExportService) prepare(req ExportRequest, actor *models.JWTClaims) (preparedExport, error) {
	criteria, err := scopeCriteria(req.Criteria, actor)
	if err != nil {
		return preparedExport{}, err
	}
	if err := criteria.Validate(); err != nil {
		return preparedExport{}, err
	}
	fields, err := normaliseFields(req.Fields)
	if err != nil {
		return preparedExport{}, err
	}
	format := models.ExportFormat(strings.ToLower(strings.TrimSpace(string(req.Format))))
	if !format.Valid() {
		return preparedExport{}, appErrors.Validation("unsupported export format %q", req.Format)
	}
	if _, ok := s.renderers[format]; !ok {
		return preparedExport{}, appErrors.Validation("unsupported export format %q", req.Format)
	}
	options := req.Options
	options.CompanyName = strings.TrimSpace(options.CompanyName)
	if options.CompanyName == "" {
		options.CompanyName = s.cfg.DefaultCompany
	}
	options.DriveDate = strings.TrimSpace(options.DriveDate)
	if options.DriveDate != "" {
		if _, err := time.Parse(studentfilter.DateLayout, options.DriveDate); err != nil {
			return preparedExport{}, appErrors.Validation("drive_date must be YYYY-MM-DD")
		}
	}
	return preparedExport{
		plan:    studentfilter.Compile(criteria, s.now()),
		fields:  fields,
		format:  format,
		options: options,
	}, nil
}

func (s *ExportService) count(ctx context.Context, prepared preparedExport) (int, error) {
	total, err := s.repo.Count(ctx, prepared.plan)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count students for export")
	}
	if total > s.cfg.MaxRows {
		return total, s.tooLarge(total)
	}
	return total, nil
}

func (s *ExportService) tooLarge(total int) error {
	return appErrors.Clone(appErrors.ErrExportTooLarge,
		fmt.Sprintf("export matches %d students, the limit is %d; narrow the filters", total, s.cfg.MaxRows))
}

func (s *ExportService) render(ctx context.Context, prepared preparedExport) (*ExportFile, error) {
	if _, err := s.count(ctx, prepared); err != nil {
		return nil, err
	}
	students, err := s.repo.ListAll(ctx, prepared.plan, s.cfg.MaxRows)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load students for export")
	}
	if len(students) > s.cfg.MaxRows {
		return nil, s.tooLarge(len(students))
	}

	sections := s.buildSections(students, prepared)
	now := s.now()
	docOpts := export.DocumentOptions{
		Title:             "Student List",
		CompanyName:       prepared.options.CompanyName,
		DriveDate:         prepared.options.DriveDate,
		SignatureColumn:   prepared.options.SignatureColumn,
		NewPagePerSection: prepared.options.SeparateColleges,
		GeneratedAt:       now,
	}
	content, err := s.renderers[prepared.format].RenderSections(sections, docOpts)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportFile{
		Filename:    exportFilename(prepared, now),
		ContentType: prepared.format.ContentType(),
		Content:     content,
		RowCount:    len(students),
	}, nil
}

func (s *ExportService) buildSections(students []models.Student, prepared preparedExport) []export.Section {
	headers := make([]string, len(prepared.fields))
	for i, key := range prepared.fields {
		headers[i] = exportFields[key].header
	}

	toRow := func(st *models.Student) map[string]string {
		row := make(map[string]string, len(prepared.fields))
		for _, key := range prepared.fields {
			value := exportFields[key].value(st)
			if key == "branch" && prepared.options.ShortBranch {
				value = s.branches.ShortName(value)
			}
			row[exportFields[key].header] = value
		}
		return row
	}

	if !prepared.options.SeparateColleges {
		data := export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(students))}
		for i := range students {
			data.Rows = append(data.Rows, toRow(&students[i]))
		}
		return []export.Section{{Title: "Students", Data: data}}
	}

	// Sections are ordered by college name; rows keep listing order within a college.
	index := make(map[string]int)
	var sections []export.Section
	for i := range students {
		st := &students[i]
		title := st.CollegeName
		if title == "" {
			title = "Unassigned"
		}
		pos, ok := index[title]
		if !ok {
			pos = len(sections)
			index[title] = pos
			sections = append(sections, export.Section{Title: title, Data: export.Dataset{Headers: headers}})
		}
		sections[pos].Data.Rows = append(sections[pos].Data.Rows, toRow(st))
	}
	sort.SliceStable(sections, func(i, j int) bool { return sections[i].Title < sections[j].Title })
	if len(sections) == 0 {
		sections = []export.Section{{Title: "Students", Data: export.Dataset{Headers: headers}}}
	}
	return sections
}

func normaliseFields(fields []string) ([]string, error) {
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, raw := range fields {
		for _, part := range strings.Split(raw, ",") {
			key := strings.ToLower(strings.TrimSpace(part))
			if key == "" {
				continue
			}
			if _, ok := exportFields[key]; !ok {
				return nil, appErrors.Validation("unknown export field %q", key)
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	if len(out) == 0 {
		return nil, appErrors.Validation("at least one export field is required")
	}
	return out, nil
}

func exportFilename(prepared preparedExport, now time.Time) string {
	status := string(prepared.plan.Criteria().Status)
	if status == "" {
		status = string(studentfilter.StatusAll)
	}
	return fmt.Sprintf("students_%s_%s.%s", status, now.UTC().Format("20060102_150405"), prepared.format.Extension())
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
