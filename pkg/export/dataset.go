package export

import "time"

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Section is a titled slice of a document, one per college when exports are split.
type Section struct {
	Title string
	Data  Dataset
}

// DocumentOptions carries header metadata for paginated documents.
type DocumentOptions struct {
	Title           string
	CompanyName     string
	DriveDate       string
	SignatureColumn bool
	// NewPagePerSection starts every section on a fresh page or sheet.
	NewPagePerSection bool
	GeneratedAt       time.Time
}

// Flatten merges sections back into a single dataset using the first section's headers.
func Flatten(sections []Section) Dataset {
	if len(sections) == 0 {
		return Dataset{}
	}
	merged := Dataset{Headers: sections[0].Data.Headers}
	for _, section := range sections {
		merged.Rows = append(merged.Rows, section.Data.Rows...)
	}
	return merged
}

// RowCount sums rows across sections.
func RowCount(sections []Section) int {
	total := 0
	for _, section := range sections {
		total += len(section.Data.Rows)
	}
	return total
}
