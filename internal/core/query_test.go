package core

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/sheetview/internal/decoder"
)

func loadedService(t *testing.T, csv string, opts Options) *Service {
	t.Helper()
	svc := NewService(&fakeSource{text: csv}, opts)
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return svc
}

func names(rows []decoder.Record, field string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r[field].String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

const peopleCSV = `Nome,Ano,Cidade
Élio,2019,Recife
ana,2021,Natal
Bruno,,São Paulo
Carla,2010,Recife
Davi,n/d,Belém
`

func TestQuery_Sort(t *testing.T) {
	svc := loadedService(t, peopleCSV, Options{Locale: language.BrazilianPortuguese})

	tests := []struct {
		name  string
		query TableQuery
		field string
		want  []string
	}{
		{
			name:  "unsorted keeps source order",
			query: TableQuery{},
			field: "Nome",
			want:  []string{"Élio", "ana", "Bruno", "Carla", "Davi"},
		},
		{
			name:  "text by collation",
			query: TableQuery{SortBy: "Nome"},
			field: "Nome",
			want:  []string{"ana", "Bruno", "Carla", "Davi", "Élio"},
		},
		{
			name:  "text descending",
			query: TableQuery{SortBy: "Nome", Descending: true},
			field: "Nome",
			want:  []string{"Élio", "Davi", "Carla", "Bruno", "ana"},
		},
		{
			name:  "numbers first then text then null",
			query: TableQuery{SortBy: "Ano"},
			field: "Nome",
			want:  []string{"Carla", "Élio", "ana", "Davi", "Bruno"},
		},
		{
			name:  "descending reverses including null",
			query: TableQuery{SortBy: "Ano", Descending: true},
			field: "Nome",
			want:  []string{"Bruno", "Davi", "ana", "Élio", "Carla"},
		},
		{
			name:  "stable for equal keys",
			query: TableQuery{SortBy: "Cidade"},
			field: "Nome",
			want:  []string{"Davi", "ana", "Élio", "Carla", "Bruno"},
		},
		{
			name:  "unknown column ignored",
			query: TableQuery{SortBy: "Nope", Descending: true},
			field: "Nome",
			want:  []string{"Élio", "ana", "Bruno", "Carla", "Davi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Query(tt.query)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if got := names(page.Rows, tt.field); !equalStrings(got, tt.want) {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}

	page, _ := svc.Query(TableQuery{SortBy: "Nope", Descending: true})
	if page.SortBy != "" || page.Descending {
		t.Errorf("unknown sort column echoed back: %q %v", page.SortBy, page.Descending)
	}
}

func TestQuery_SortDoesNotMutateSnapshot(t *testing.T) {
	svc := loadedService(t, peopleCSV, Options{})
	if _, err := svc.Query(TableQuery{SortBy: "Nome"}); err != nil {
		t.Fatal(err)
	}
	got := names(svc.Snapshot().Records(), "Nome")
	want := []string{"Élio", "ana", "Bruno", "Carla", "Davi"}
	if !equalStrings(got, want) {
		t.Errorf("snapshot order = %v, want %v", got, want)
	}
}

func TestQuery_Filter(t *testing.T) {
	svc := loadedService(t, peopleCSV, Options{})

	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"Élio", "ana", "Bruno", "Carla", "Davi"}},
		{"recife", []string{"Élio", "Carla"}},
		{"RECIFE", []string{"Élio", "Carla"}},
		{"  ana ", []string{"ana"}},
		{"élio", []string{"Élio"}},
		{"2021", []string{"ana"}},
		{"são", []string{"Bruno"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			page, err := svc.Query(TableQuery{Filter: tt.filter})
			if err != nil {
				t.Fatal(err)
			}
			if got := names(page.Rows, "Nome"); !equalStrings(got, tt.want) {
				t.Errorf("Filter(%q) = %v, want %v", tt.filter, got, tt.want)
			}
			if page.Total != len(tt.want) {
				t.Errorf("Total = %d, want %d", page.Total, len(tt.want))
			}
			if page.Rows == nil {
				t.Error("Rows should be empty, not nil")
			}
		})
	}
}

func TestQuery_Pagination(t *testing.T) {
	svc := loadedService(t, peopleCSV, Options{RowsPerPage: 2})

	tests := []struct {
		name      string
		page      int
		perPage   int
		wantPage  int
		wantPages int
		want      []string
	}{
		{"first page", 1, 0, 1, 3, []string{"Élio", "ana"}},
		{"last partial page", 3, 0, 3, 3, []string{"Davi"}},
		{"zero clamps to first", 0, 0, 1, 3, []string{"Élio", "ana"}},
		{"past end clamps to last", 99, 0, 3, 3, []string{"Davi"}},
		{"explicit page size", 2, 3, 2, 2, []string{"Carla", "Davi"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Query(TableQuery{Page: tt.page, RowsPerPage: tt.perPage})
			if err != nil {
				t.Fatal(err)
			}
			if page.Page != tt.wantPage || page.Pages != tt.wantPages {
				t.Errorf("page %d/%d, want %d/%d", page.Page, page.Pages, tt.wantPage, tt.wantPages)
			}
			if got := names(page.Rows, "Nome"); !equalStrings(got, tt.want) {
				t.Errorf("rows = %v, want %v", got, tt.want)
			}
		})
	}

	page, _ := svc.Query(TableQuery{Page: 2})
	if !page.HasPrev() || !page.HasNext() || page.First() != 3 || page.Last() != 4 {
		t.Errorf("page 2 helpers: prev=%v next=%v first=%d last=%d",
			page.HasPrev(), page.HasNext(), page.First(), page.Last())
	}
}

func TestQuery_EmptyDocument(t *testing.T) {
	svc := loadedService(t, "", Options{})
	page, err := svc.Query(TableQuery{Page: 5})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 0 || page.Page != 1 || page.Pages != 1 || len(page.Columns) != 0 {
		t.Errorf("empty page = %+v", page)
	}
	if page.First() != 0 || page.Last() != 0 || page.HasNext() {
		t.Error("empty page helpers should report nothing")
	}
}

func TestService_View(t *testing.T) {
	svc := NewService(&fakeSource{text: peopleCSV}, Options{RowsPerPage: 1})
	if _, _, err := svc.View(TableQuery{}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("View before load err = %v", err)
	}
	svc.Load(context.Background())

	cols, rows, err := svc.View(TableQuery{Filter: "recife", SortBy: "Nome", Page: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 3 {
		t.Errorf("columns = %d, want 3", len(cols))
	}
	if got := names(rows, "Nome"); !equalStrings(got, []string{"Carla", "Élio"}) {
		t.Errorf("View rows = %v", got)
	}
}

func TestCompareValues(t *testing.T) {
	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	tests := []struct {
		name string
		a, b decoder.Value
		want int
	}{
		{"numbers", decoder.Number(2), decoder.Number(10), -1},
		{"equal numbers", decoder.Number(1), decoder.Number(1), 0},
		{"number before text", decoder.Number(99), decoder.Text("a"), -1},
		{"text before null", decoder.Text("z"), decoder.Null(), -1},
		{"null after number", decoder.Null(), decoder.Number(0), 1},
		{"nulls equal", decoder.Null(), decoder.Null(), 0},
		{"accent collates with base letter", decoder.Text("é"), decoder.Text("f"), -1},
		{"case ignored before code point tiebreak", decoder.Text("b"), decoder.Text("C"), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareValues(tt.a, tt.b, col)
			if sign(got) != tt.want {
				t.Errorf("CompareValues(%v, %v) = %d, want sign %d", tt.a, tt.b, got, tt.want)
			}
		})
	}

	if CompareValues(decoder.Text("é"), decoder.Text("f"), nil) <= 0 {
		t.Error("without a collator text should compare by code point")
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
