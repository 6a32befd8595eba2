package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// FileKind identifies one of the six source exports.
type FileKind string

const (
	FileCustomers      FileKind = "customer_info"
	FileVisitFrequency FileKind = "visit_frequency"
	FileSalesDetail    FileKind = "sales_detail"
	FilePayments       FileKind = "payment"
	FileItemSales      FileKind = "item_sales"
	FileServiceSales   FileKind = "service_sales"
)

// HeaderSpec describes where a file's header sits. The skip counts are
// contractual: they come from the fixed report templates the source
// system exports and must not be changed per upload.
type HeaderSpec struct {
	SkipRows    int  // rows above the header
	SplitHeader bool // header spread over two physical rows
}

// FileSpec ties a source export to its header contract.
type FileSpec struct {
	Kind   FileKind
	Label  string
	Header HeaderSpec
}

// FileSpecs is the fixed set of source exports, keyed by kind.
var FileSpecs = map[FileKind]FileSpec{
	FileCustomers:      {Kind: FileCustomers, Label: "Customer Info", Header: HeaderSpec{SkipRows: 11, SplitHeader: true}},
	FileVisitFrequency: {Kind: FileVisitFrequency, Label: "Visit Frequency", Header: HeaderSpec{SkipRows: 0}},
	FileSalesDetail:    {Kind: FileSalesDetail, Label: "Sales Detail", Header: HeaderSpec{SkipRows: 15, SplitHeader: true}},
	FilePayments:       {Kind: FilePayments, Label: "Payment", Header: HeaderSpec{SkipRows: 16}},
	FileItemSales:      {Kind: FileItemSales, Label: "Item Sales", Header: HeaderSpec{SkipRows: 15}},
	FileServiceSales:   {Kind: FileServiceSales, Label: "Service Sales", Header: HeaderSpec{SkipRows: 15, SplitHeader: true}},
}

// FileOrder is the presentation order of the six exports.
var FileOrder = []FileKind{
	FileCustomers, FileVisitFrequency, FileSalesDetail,
	FilePayments, FileItemSales, FileServiceSales,
}

// Extract decodes a tabular document into RawRows according to the header
// spec. The container format is chosen from the file name: .xlsx/.xls is
// read as a multi-sheet binary workbook (first sheet), anything else as
// delimited text. A document with zero data rows yields an empty slice,
// not an error; a structurally unreadable document fails the call.
func Extract(r io.Reader, fileName string, spec HeaderSpec) ([]RawRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}

	var records [][]string
	if isWorkbook(fileName) {
		records, err = readWorkbook(data)
	} else {
		records, err = readDelimited(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", fileName, err)
	}

	return headerize(records, spec), nil
}

// headerize applies the skip/split header contract to raw records.
func headerize(records [][]string, spec HeaderSpec) []RawRow {
	headerRow := spec.SkipRows
	dataStart := headerRow + 1
	if spec.SplitHeader {
		dataStart = headerRow + 2
	}

	// Not enough rows for even the header: zero data rows.
	if len(records) < dataStart {
		return []RawRow{}
	}

	labels := buildLabels(records, headerRow, spec.SplitHeader)

	rows := make([]RawRow, 0, len(records)-dataStart)
	for _, record := range records[dataStart:] {
		if isEmptyRecord(record) {
			continue
		}
		row := make(RawRow, len(labels))
		for i, label := range labels {
			if i >= len(record) {
				break
			}
			// First occurrence of a duplicated label wins.
			if _, seen := row[label]; seen {
				continue
			}
			row[label] = record[i]
		}
		rows = append(rows, row)
	}

	return rows
}

// buildLabels resolves the column labels for a single- or split-row header.
// For split headers the label is the upper cell when non-empty, else the
// lower cell, else a positional placeholder. The source system wraps long
// header text onto two physical rows, which is the only reason split
// headers exist.
func buildLabels(records [][]string, headerRow int, split bool) []string {
	upper := records[headerRow]
	var lower []string
	if split && headerRow+1 < len(records) {
		lower = records[headerRow+1]
	}

	width := len(upper)
	if len(lower) > width {
		width = len(lower)
	}

	labels := make([]string, width)
	for i := 0; i < width; i++ {
		var label string
		if i < len(upper) {
			label = strings.TrimSpace(upper[i])
		}
		if label == "" && i < len(lower) {
			label = strings.TrimSpace(lower[i])
		}
		if label == "" {
			label = fmt.Sprintf("Column_%d", i)
		}
		labels[i] = normalizeLabel(label)
	}
	return labels
}

// isWorkbook reports whether the file name indicates a binary workbook.
func isWorkbook(fileName string) bool {
	lower := strings.ToLower(fileName)
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")
}

// readWorkbook decodes the first sheet of an xlsx workbook.
func readWorkbook(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

// readDelimited decodes a CSV document, tolerating ragged rows and loose
// quoting the way the source exports produce them.
func readDelimited(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(sanitizeUTF8(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune
// so the CSV reader never chokes on a half-written export.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
