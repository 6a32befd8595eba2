package ingest

import (
	"strings"
	"testing"
)

// ----------------------------------------------------------------------------
// Extract Tests (delimited container)
// ----------------------------------------------------------------------------

func TestExtractSingleHeader(t *testing.T) {
	doc := "Membership Number,Customer Name\nM001,Alice\nM002,Bob\n"

	rows, err := Extract(strings.NewReader(doc), "customers.csv", HeaderSpec{SkipRows: 0})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if got := pick(rows[0], "Membership Number"); got != "M001" {
		t.Errorf("membership = %q, want M001", got)
	}
	if got := pick(rows[1], "Customer Name"); got != "Bob" {
		t.Errorf("name = %q, want Bob", got)
	}
}

func TestExtractSkipRows(t *testing.T) {
	doc := strings.Repeat("report banner,,\n", 3) +
		"SO Number,Amount\nSO1,100\n"

	rows, err := Extract(strings.NewReader(doc), "sales.csv", HeaderSpec{SkipRows: 3})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if got := pick(rows[0], "SO Number"); got != "SO1" {
		t.Errorf("so number = %q, want SO1", got)
	}
}

func TestExtractSplitHeader(t *testing.T) {
	// Upper row wins where non-empty, lower row fills gaps, and a column
	// blank in both rows gets a positional placeholder.
	doc := "SO Number,,Total\n,Customer,\nSO1,Alice,150\n"

	rows, err := Extract(strings.NewReader(doc), "sales.csv", HeaderSpec{SkipRows: 0, SplitHeader: true})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if got := pick(rows[0], "SO Number"); got != "SO1" {
		t.Errorf("upper label = %q, want SO1", got)
	}
	if got := pick(rows[0], "Customer"); got != "Alice" {
		t.Errorf("lower label = %q, want Alice", got)
	}
	if got := pick(rows[0], "Total"); got != "150" {
		t.Errorf("total = %q, want 150", got)
	}
}

func TestExtractPlaceholderLabel(t *testing.T) {
	doc := "A,,C\n,,\n1,2,3\n"

	rows, err := Extract(strings.NewReader(doc), "f.csv", HeaderSpec{SkipRows: 0, SplitHeader: true})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := pick(rows[0], "Column_1"); got != "2" {
		t.Errorf("placeholder column = %q, want 2", got)
	}
}

func TestExtractBOMStripped(t *testing.T) {
	doc := "\uFEFFMembership Number,Name\nM001,Alice\n"

	rows, err := Extract(strings.NewReader(doc), "c.csv", HeaderSpec{SkipRows: 0})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := pick(rows[0], "Membership Number"); got != "M001" {
		t.Errorf("BOM header lookup = %q, want M001", got)
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		spec HeaderSpec
	}{
		{name: "zero bytes", doc: "", spec: HeaderSpec{SkipRows: 0}},
		{name: "header only", doc: "A,B\n", spec: HeaderSpec{SkipRows: 0}},
		{name: "fewer rows than skip", doc: "A,B\n", spec: HeaderSpec{SkipRows: 5}},
		{name: "split header only", doc: "A,B\nC,D\n", spec: HeaderSpec{SkipRows: 0, SplitHeader: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Extract(strings.NewReader(tt.doc), "f.csv", tt.spec)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(rows) != 0 {
				t.Errorf("got %d rows, want 0", len(rows))
			}
		})
	}
}

func TestExtractSkipsBlankDataRows(t *testing.T) {
	doc := "A,B\n1,2\n,\n3,4\n"

	rows, err := Extract(strings.NewReader(doc), "f.csv", HeaderSpec{SkipRows: 0})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}

func TestExtractDuplicateLabelFirstWins(t *testing.T) {
	doc := "Amount,Amount\n100,200\n"

	rows, err := Extract(strings.NewReader(doc), "f.csv", HeaderSpec{SkipRows: 0})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := pick(rows[0], "Amount"); got != "100" {
		t.Errorf("duplicated label = %q, want first occurrence 100", got)
	}
}

func TestExtractMalformedWorkbookFails(t *testing.T) {
	if _, err := Extract(strings.NewReader("this is not a zip archive"), "broken.xlsx", HeaderSpec{}); err == nil {
		t.Fatal("Extract of malformed workbook did not fail")
	}
}

// ----------------------------------------------------------------------------
// Header contract
// ----------------------------------------------------------------------------

func TestFileSpecsContract(t *testing.T) {
	// The skip counts come from the fixed report templates; a change here
	// is a contract change with the source system, not a refactor.
	want := map[FileKind]HeaderSpec{
		FileCustomers:      {SkipRows: 11, SplitHeader: true},
		FileVisitFrequency: {SkipRows: 0},
		FileSalesDetail:    {SkipRows: 15, SplitHeader: true},
		FilePayments:       {SkipRows: 16},
		FileItemSales:      {SkipRows: 15},
		FileServiceSales:   {SkipRows: 15, SplitHeader: true},
	}

	for kind, spec := range want {
		if FileSpecs[kind].Header != spec {
			t.Errorf("%s header = %+v, want %+v", kind, FileSpecs[kind].Header, spec)
		}
	}
}
