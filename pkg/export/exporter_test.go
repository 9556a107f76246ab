package export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset(rows int, college string) Dataset {
	data := Dataset{Headers: []string{"PRN", "Name", "Branch"}}
	for i := 0; i < rows; i++ {
		data.Rows = append(data.Rows, map[string]string{
			"PRN":    fmt.Sprintf("%s-%03d", college, i),
			"Name":   fmt.Sprintf("Student %d", i),
			"Branch": "COMP",
		})
	}
	return data
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"PRN", "Name"},
		Rows: []map[string]string{
			{"PRN": "P1", "Name": "Patil, Asha"},
			{"PRN": "P2"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "PRN,Name\nP1,\"Patil, Asha\"\nP2,\n", string(out))
}

func TestCSVExporterBOMAndSections(t *testing.T) {
	exporter := &CSVExporter{BOM: true}
	out, err := exporter.RenderSections([]Section{
		{Title: "A", Data: sampleDataset(1, "A")},
		{Title: "B", Data: sampleDataset(2, "B")},
	}, DocumentOptions{NewPagePerSection: true})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	// header, A row, blank separator, "B" title, two B rows
	assert.Equal(t, 6, bytes.Count(out, []byte("\n")))
	assert.Contains(t, string(out), "\n\nB\n")

	flat, err := NewCSVExporter().RenderSections([]Section{
		{Title: "A", Data: sampleDataset(1, "A")},
		{Title: "B", Data: sampleDataset(2, "B")},
	}, DocumentOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, bytes.Count(flat, []byte("\n")))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestExcelExporterSingleSheet(t *testing.T) {
	out, err := NewExcelExporter().RenderSections([]Section{
		{Title: "Pune Institute", Data: sampleDataset(2, "P")},
		{Title: "Satara College", Data: sampleDataset(1, "S")},
	}, DocumentOptions{CompanyName: "Acme Corp"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Equal(t, []string{"Pune Institute"}, sheets)
	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "Acme Corp", rows[0][0])
	assert.Equal(t, []string{"PRN", "Name", "Branch"}, rows[2])
	assert.Equal(t, "S-000", rows[5][0])
}

func TestExcelExporterSheetPerSection(t *testing.T) {
	out, err := NewExcelExporter().RenderSections([]Section{
		{Title: "College: North/West", Data: sampleDataset(2, "N")},
		{Title: "College: North/West", Data: sampleDataset(1, "W")},
	}, DocumentOptions{NewPagePerSection: true})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 2)
	assert.Equal(t, "College  North West", sheets[0])
	assert.Equal(t, "College  North West (2)", sheets[1])
	rows, err := f.GetRows(sheets[1])
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestUniqueSheetNameTruncates(t *testing.T) {
	used := map[string]int{}
	long := "Savitribai Phule Institute of Engineering and Technology"
	first := uniqueSheetName(long, used)
	second := uniqueSheetName(long, used)
	assert.Len(t, []rune(first), maxSheetNameRunes)
	assert.Len(t, []rune(second), maxSheetNameRunes)
	assert.NotEqual(t, first, second)
	assert.Equal(t, defaultSheet, uniqueSheetName("  ", used))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(3, "P"), "Students")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterSeparatesSections(t *testing.T) {
	sections := []Section{
		{Title: "College A", Data: sampleDataset(2, "A")},
		{Title: "College B", Data: sampleDataset(2, "B")},
		{Title: "College C", Data: sampleDataset(2, "C")},
	}
	opts := DocumentOptions{
		Title:             "Eligible students",
		CompanyName:       "Acme Corp",
		DriveDate:         "2024-07-01",
		SignatureColumn:   true,
		NewPagePerSection: true,
		GeneratedAt:       time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}

	pdf, err := NewPDFExporter().build(sections, opts)
	require.NoError(t, err)
	assert.Equal(t, 3, pdf.PageCount())

	opts.NewPagePerSection = false
	pdf, err = NewPDFExporter().build(sections, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, pdf.PageCount())
}

func TestPDFExporterBreaksLongTables(t *testing.T) {
	pdf, err := NewPDFExporter().build([]Section{{Data: sampleDataset(80, "X")}}, DocumentOptions{})
	require.NoError(t, err)
	assert.Greater(t, pdf.PageCount(), 1)
}

func TestFitTruncatesTranslatedText(t *testing.T) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 8)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	name := tr("Müller Jösé Ñúñez-Fernández")

	out := fit(pdf, name, 20)
	assert.NotContains(t, out, "\uFFFD")
	assert.True(t, strings.HasSuffix(out, "..."))
	kept := strings.TrimSuffix(out, "...")
	assert.NotEmpty(t, kept)
	assert.True(t, strings.HasPrefix(name, kept))
	assert.Equal(t, byte(0xFC), kept[1])
	assert.LessOrEqual(t, pdf.GetStringWidth(out), 18.0)

	assert.Equal(t, tr("Jösé"), fit(pdf, tr("Jösé"), 20))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "empty")
	assert.Error(t, err)
}
