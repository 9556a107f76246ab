// Package studentfilter turns student search criteria into one predicate set shared
// by paginated listing and every export format.
//
// Criteria are parsed once per request from query parameters. Every field is
// optional: a nil pointer, an empty string or an empty slice leaves the result set
// unconstrained, and all present fields are AND-combined. Compile produces a Plan
// that renders the predicates as a PostgreSQL WHERE clause and evaluates the same
// predicates in memory, so callers and tests can check both paths agree.
package studentfilter

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/noah-isme/placement-portal-api/pkg/errors"
)

// DateLayout is the accepted wire format for date filters.
const DateLayout = "2006-01-02"

// Status selects the registration tab. Blacklisted is virtual and derived from the
// blacklist flag rather than the registration status.
type Status string

const (
	StatusAll         Status = "all"
	StatusPending     Status = "pending"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusBlacklisted Status = "blacklisted"
)

func (s Status) valid() bool {
	switch s {
	case "", StatusAll, StatusPending, StatusApproved, StatusRejected, StatusBlacklisted:
		return true
	}
	return false
}

// Criteria holds the optional filters applied to the student store.
type Criteria struct {
	Status Status
	Search string

	CGPAMin    *float64
	CGPAMax    *float64
	BacklogMax *int
	Branch     string

	DOBFrom *time.Time
	DOBTo   *time.Time

	HeightMin *float64
	HeightMax *float64
	WeightMin *float64
	WeightMax *float64

	HasDrivingLicense *bool
	HasPAN            *bool
	HasAadhar         *bool
	HasPassport       *bool

	Districts []string

	CollegeID string
	RegionID  string
}

// Query parameter names understood by ParseQuery.
const (
	KeyStatus            = "status"
	KeySearch            = "search"
	KeyCGPAMin           = "cgpa_min"
	KeyCGPAMax           = "cgpa_max"
	KeyBacklogCount      = "backlog_count"
	KeyBranch            = "branch"
	KeyDOBFrom           = "dob_from"
	KeyDOBTo             = "dob_to"
	KeyHeightMin         = "height_min"
	KeyHeightMax         = "height_max"
	KeyWeightMin         = "weight_min"
	KeyWeightMax         = "weight_max"
	KeyHasDrivingLicense = "has_driving_license"
	KeyHasPAN            = "has_pan"
	KeyHasAadhar         = "has_aadhar"
	KeyHasPassport       = "has_passport"
	KeyDistricts         = "districts"
	KeyCollegeID         = "college_id"
	KeyRegionID          = "region_id"
)

// ParseQuery builds Criteria from query parameters. Empty values are treated as absent.
func ParseQuery(values url.Values) (Criteria, error) {
	var (
		c   Criteria
		err error
	)

	status := Status(strings.ToLower(first(values, KeyStatus)))
	if !status.valid() {
		return Criteria{}, appErrors.Validation("invalid %s %q", KeyStatus, status)
	}
	c.Status = status
	c.Search = first(values, KeySearch)
	c.Branch = first(values, KeyBranch)
	c.CollegeID = first(values, KeyCollegeID)
	c.RegionID = first(values, KeyRegionID)

	floats := []struct {
		key  string
		dest **float64
	}{
		{KeyCGPAMin, &c.CGPAMin},
		{KeyCGPAMax, &c.CGPAMax},
		{KeyHeightMin, &c.HeightMin},
		{KeyHeightMax, &c.HeightMax},
		{KeyWeightMin, &c.WeightMin},
		{KeyWeightMax, &c.WeightMax},
	}
	for _, f := range floats {
		if *f.dest, err = parseFloat(values, f.key); err != nil {
			return Criteria{}, err
		}
	}

	if raw := first(values, KeyBacklogCount); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return Criteria{}, appErrors.Validation("invalid %s %q", KeyBacklogCount, raw)
		}
		c.BacklogMax = &n
	}

	if c.DOBFrom, err = parseDate(values, KeyDOBFrom); err != nil {
		return Criteria{}, err
	}
	if c.DOBTo, err = parseDate(values, KeyDOBTo); err != nil {
		return Criteria{}, err
	}

	flags := []struct {
		key  string
		dest **bool
	}{
		{KeyHasDrivingLicense, &c.HasDrivingLicense},
		{KeyHasPAN, &c.HasPAN},
		{KeyHasAadhar, &c.HasAadhar},
		{KeyHasPassport, &c.HasPassport},
	}
	for _, f := range flags {
		if *f.dest, err = parseFlag(values, f.key); err != nil {
			return Criteria{}, err
		}
	}

	c.Districts = parseList(values[KeyDistricts])

	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// Validate rejects inverted ranges and negative bounds.
func (c Criteria) Validate() error {
	if !c.Status.valid() {
		return appErrors.Validation("invalid %s %q", KeyStatus, c.Status)
	}
	ranges := []struct {
		name     string
		min, max *float64
	}{
		{"cgpa", c.CGPAMin, c.CGPAMax},
		{"height", c.HeightMin, c.HeightMax},
		{"weight", c.WeightMin, c.WeightMax},
	}
	for _, r := range ranges {
		if r.min != nil && *r.min < 0 {
			return appErrors.Validation("%s_min must not be negative", r.name)
		}
		if r.max != nil && *r.max < 0 {
			return appErrors.Validation("%s_max must not be negative", r.name)
		}
		if r.min != nil && r.max != nil && *r.min > *r.max {
			return appErrors.Validation("%s_min must not exceed %s_max", r.name, r.name)
		}
	}
	if c.BacklogMax != nil && *c.BacklogMax < 0 {
		return appErrors.Validation("%s must not be negative", KeyBacklogCount)
	}
	if c.DOBFrom != nil && c.DOBTo != nil && c.DOBFrom.After(*c.DOBTo) {
		return appErrors.Validation("%s must not be after %s", KeyDOBFrom, KeyDOBTo)
	}
	return nil
}

// Encode renders the criteria back into query parameters accepted by ParseQuery.
func (c Criteria) Encode() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	if c.Status != "" {
		set(KeyStatus, string(c.Status))
	}
	set(KeySearch, c.Search)
	set(KeyBranch, c.Branch)
	set(KeyCollegeID, c.CollegeID)
	set(KeyRegionID, c.RegionID)
	setFloat := func(key string, v *float64) {
		if v != nil {
			set(key, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	setFloat(KeyCGPAMin, c.CGPAMin)
	setFloat(KeyCGPAMax, c.CGPAMax)
	setFloat(KeyHeightMin, c.HeightMin)
	setFloat(KeyHeightMax, c.HeightMax)
	setFloat(KeyWeightMin, c.WeightMin)
	setFloat(KeyWeightMax, c.WeightMax)
	if c.BacklogMax != nil {
		set(KeyBacklogCount, strconv.Itoa(*c.BacklogMax))
	}
	if c.DOBFrom != nil {
		set(KeyDOBFrom, c.DOBFrom.Format(DateLayout))
	}
	if c.DOBTo != nil {
		set(KeyDOBTo, c.DOBTo.Format(DateLayout))
	}
	setFlag := func(key string, v *bool) {
		if v == nil {
			return
		}
		if *v {
			set(key, "yes")
		} else {
			set(key, "no")
		}
	}
	setFlag(KeyHasDrivingLicense, c.HasDrivingLicense)
	setFlag(KeyHasPAN, c.HasPAN)
	setFlag(KeyHasAadhar, c.HasAadhar)
	setFlag(KeyHasPassport, c.HasPassport)
	if len(c.Districts) > 0 {
		set(KeyDistricts, strings.Join(c.Districts, ","))
	}
	return values
}

func first(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}

func parseFloat(values url.Values, key string) (*float64, error) {
	raw := first(values, key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, appErrors.Validation("invalid %s %q", key, raw)
	}
	return &v, nil
}

func parseDate(values url.Values, key string) (*time.Time, error) {
	raw := first(values, key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, appErrors.Validation("invalid %s %q, expected YYYY-MM-DD", key, raw)
	}
	return &t, nil
}

func parseFlag(values url.Values, key string) (*bool, error) {
	raw := strings.ToLower(first(values, key))
	var v bool
	switch raw {
	case "":
		return nil, nil
	case "yes", "true":
		v = true
	case "no", "false":
		v = false
	default:
		return nil, appErrors.Validation("invalid %s %q, expected yes or no", key, raw)
	}
	return &v, nil
}

// parseList accepts repeated parameters and comma separated values, dropping blanks and duplicates.
func parseList(raw []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}
