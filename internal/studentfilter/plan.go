package studentfilter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/placement-portal-api/internal/models"
)

// OrderBy is the deterministic ordering used by every listing and export query.
const OrderBy = "s.created_at DESC, s.id ASC"

// Plan is the compiled, immutable form of Criteria.
type Plan struct {
	criteria Criteria
	dobTo    *time.Time
	preds    []predicate
}

type predicate struct {
	render func(b *whereBuilder) string
	match  func(s *models.Student) bool
}

type whereBuilder struct {
	args []interface{}
}

func (b *whereBuilder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns an ILIKE pattern matching s as a literal substring.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Compile resolves criteria against the reference time now. A dob_from without
// dob_to is bounded by the calendar date of now.
func Compile(c Criteria, now time.Time) Plan {
	p := Plan{criteria: c}

	switch c.Status {
	case "", StatusAll:
	case StatusBlacklisted:
		p.add(func(*whereBuilder) string { return "s.is_blacklisted = TRUE" },
			func(s *models.Student) bool { return s.IsBlacklisted })
	default:
		status := models.RegistrationStatus(c.Status)
		p.add(func(b *whereBuilder) string {
			return fmt.Sprintf("s.registration_status = %s AND s.is_blacklisted = FALSE", b.arg(string(status)))
		}, func(s *models.Student) bool {
			return s.RegistrationStatus == status && !s.IsBlacklisted
		})
	}

	if search := strings.TrimSpace(c.Search); search != "" {
		pattern := ContainsPattern(search)
		needle := strings.ToLower(search)
		p.add(func(b *whereBuilder) string {
			ph := b.arg(pattern)
			return fmt.Sprintf("(s.prn ILIKE %s OR s.name ILIKE %s OR s.email ILIKE %s)", ph, ph, ph)
		}, func(s *models.Student) bool {
			return strings.Contains(strings.ToLower(s.PRN), needle) ||
				strings.Contains(strings.ToLower(s.Name), needle) ||
				strings.Contains(strings.ToLower(s.Email), needle)
		})
	}

	p.addRange("s.programme_cgpa", c.CGPAMin, c.CGPAMax, func(s *models.Student) float64 { return s.ProgrammeCGPA })

	if c.BacklogMax != nil {
		limit := *c.BacklogMax
		p.add(func(b *whereBuilder) string { return "s.backlog_count <= " + b.arg(limit) },
			func(s *models.Student) bool { return s.BacklogCount <= limit })
	}

	if c.Branch != "" {
		branch := c.Branch
		p.add(func(b *whereBuilder) string { return "s.branch = " + b.arg(branch) },
			func(s *models.Student) bool { return s.Branch == branch })
	}

	if c.DOBFrom != nil {
		from := dateOnly(*c.DOBFrom)
		p.add(func(b *whereBuilder) string { return "s.date_of_birth >= " + b.arg(from.Format(DateLayout)) },
			func(s *models.Student) bool { return !dateOnly(s.DateOfBirth).Before(from) })
	}
	switch {
	case c.DOBTo != nil:
		to := dateOnly(*c.DOBTo)
		p.dobTo = &to
	case c.DOBFrom != nil:
		to := dateOnly(now)
		p.dobTo = &to
	}
	if p.dobTo != nil {
		to := *p.dobTo
		p.add(func(b *whereBuilder) string { return "s.date_of_birth <= " + b.arg(to.Format(DateLayout)) },
			func(s *models.Student) bool { return !dateOnly(s.DateOfBirth).After(to) })
	}

	p.addRange("s.height", c.HeightMin, c.HeightMax, func(s *models.Student) float64 { return s.Height })
	p.addRange("s.weight", c.WeightMin, c.WeightMax, func(s *models.Student) float64 { return s.Weight })

	p.addFlag("s.has_driving_license", c.HasDrivingLicense, func(s *models.Student) bool { return s.HasDrivingLicense })
	p.addFlag("s.has_pan", c.HasPAN, func(s *models.Student) bool { return s.HasPAN })
	p.addFlag("s.has_aadhar", c.HasAadhar, func(s *models.Student) bool { return s.HasAadhar })
	p.addFlag("s.has_passport", c.HasPassport, func(s *models.Student) bool { return s.HasPassport })

	if len(c.Districts) > 0 {
		districts := append([]string(nil), c.Districts...)
		set := make(map[string]struct{}, len(districts))
		for _, d := range districts {
			set[d] = struct{}{}
		}
		p.add(func(b *whereBuilder) string {
			placeholders := make([]string, len(districts))
			for i, d := range districts {
				placeholders[i] = b.arg(d)
			}
			return fmt.Sprintf("s.district IN (%s)", strings.Join(placeholders, ", "))
		}, func(s *models.Student) bool {
			_, ok := set[s.District]
			return ok
		})
	}

	if c.CollegeID != "" {
		id := c.CollegeID
		p.add(func(b *whereBuilder) string { return "s.college_id = " + b.arg(id) },
			func(s *models.Student) bool { return s.CollegeID == id })
	}
	if c.RegionID != "" {
		id := c.RegionID
		p.add(func(b *whereBuilder) string { return "s.region_id = " + b.arg(id) },
			func(s *models.Student) bool { return s.RegionID == id })
	}

	return p
}

func (p *Plan) add(render func(b *whereBuilder) string, match func(s *models.Student) bool) {
	p.preds = append(p.preds, predicate{render: render, match: match})
}

func (p *Plan) addRange(column string, lower, upper *float64, value func(s *models.Student) float64) {
	if lower != nil {
		lo := *lower
		p.add(func(b *whereBuilder) string { return column + " >= " + b.arg(lo) },
			func(s *models.Student) bool { return value(s) >= lo })
	}
	if upper != nil {
		hi := *upper
		p.add(func(b *whereBuilder) string { return column + " <= " + b.arg(hi) },
			func(s *models.Student) bool { return value(s) <= hi })
	}
}

func (p *Plan) addFlag(column string, want *bool, value func(s *models.Student) bool) {
	if want == nil {
		return
	}
	expected := *want
	p.add(func(b *whereBuilder) string { return column + " = " + b.arg(expected) },
		func(s *models.Student) bool { return value(s) == expected })
}

// Criteria returns the criteria the plan was compiled from.
func (p Plan) Criteria() Criteria {
	return p.criteria
}

// EffectiveDOBTo is the resolved inclusive upper date bound, nil when unbounded.
func (p Plan) EffectiveDOBTo() *time.Time {
	if p.dobTo == nil {
		return nil
	}
	to := *p.dobTo
	return &to
}

// Len reports the number of active predicates.
func (p Plan) Len() int {
	return len(p.preds)
}

// Where renders the predicates joined with AND, numbering placeholders from $1.
// With no active predicates the clause is "1=1".
func (p Plan) Where() (string, []interface{}) {
	b := &whereBuilder{}
	conditions := []string{"1=1"}
	for _, pred := range p.preds {
		conditions = append(conditions, pred.render(b))
	}
	return strings.Join(conditions, " AND "), b.args
}

// Match evaluates the predicates against a student in memory.
func (p Plan) Match(s *models.Student) bool {
	for _, pred := range p.preds {
		if !pred.match(s) {
			return false
		}
	}
	return true
}

// Apply returns the matching students in OrderBy order without modifying the input.
func (p Plan) Apply(students []models.Student) []models.Student {
	out := make([]models.Student, 0, len(students))
	for i := range students {
		if p.Match(&students[i]) {
			out = append(out, students[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return Less(&out[i], &out[j]) })
	return out
}

// Less orders students the way OrderBy does.
func Less(a, b *models.Student) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
