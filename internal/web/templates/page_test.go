package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/decoder"
)

func render(t *testing.T, d PageData) (*html.Node, string) {
	t.Helper()
	var buf bytes.Buffer
	if err := Page(d).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	doc, err := html.Parse(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("parse rendered page: %v", err)
	}
	return doc, buf.String()
}

func findAll(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func alumniPage(t *testing.T, q core.TableQuery) *core.TablePage {
	t.Helper()
	raw := "Nome,Ano,Lattes\n" +
		"Ana,2020,http://lattes.cnpq.br/1\n" +
		"<b>Beto</b>,2019,javascript:alert(1)\n" +
		"Caio,,\n"
	doc, err := decoder.Decode(raw, decoder.Options{})
	if err != nil {
		t.Fatal(err)
	}
	snap := &core.Snapshot{LoadID: "x", Document: doc, Columns: core.DeriveColumns(doc), LoadedAt: time.Now()}
	return core.QuerySnapshot(snap, q, language.BrazilianPortuguese)
}

func TestPage_Table(t *testing.T) {
	d := PageData{
		Title:      "Alumni",
		Lang:       language.BrazilianPortuguese,
		Status:     core.Status{LoadID: "x", LoadedAt: time.Now(), Records: 3},
		Page:       alumniPage(t, core.TableQuery{}),
		LinkLabel:  "Nome",
		LinkTarget: "Lattes",
	}
	doc, raw := render(t, d)

	htmlEl := findAll(doc, "html")[0]
	if got := attr(htmlEl, "lang"); got != "pt-BR" {
		t.Errorf("lang = %q, want pt-BR", got)
	}

	var headers []string
	for _, th := range findAll(doc, "th") {
		headers = append(headers, strings.TrimSpace(strings.TrimRight(text(th), "▲▼ ")))
	}
	if strings.Join(headers, ",") != "Nome,Ano" {
		t.Errorf("headers = %v, want Nome,Ano (link target hidden)", headers)
	}

	if strings.Contains(raw, "<b>Beto</b>") {
		t.Error("cell text was not escaped")
	}

	rows := findAll(findAll(doc, "tbody")[0], "tr")
	if len(rows) != 3 {
		t.Fatalf("body rows = %d, want 3", len(rows))
	}

	links := findAll(rows[0], "a")
	if len(links) != 1 || attr(links[0], "href") != "http://lattes.cnpq.br/1" || text(links[0]) != "Ana" {
		t.Errorf("first row link = %v", links)
	}

	links = findAll(rows[1], "a")
	if len(links) != 1 {
		t.Fatalf("second row links = %d, want 1", len(links))
	}
	if href := attr(links[0], "href"); strings.HasPrefix(href, "javascript:") {
		t.Errorf("unsafe link was not sanitized: %q", href)
	}

	if len(findAll(rows[2], "a")) != 0 {
		t.Error("row with empty target should not link")
	}

	if !strings.Contains(raw, "Exibindo 1-3 de 3") {
		t.Error("summary line missing or not localized")
	}
	if len(findAll(doc, "nav")) != 0 {
		t.Error("single page should not render pagination")
	}
}

func TestPage_SortLinks(t *testing.T) {
	d := PageData{
		Title: "T",
		Lang:  language.English,
		Page:  alumniPage(t, core.TableQuery{SortBy: "Ano", Filter: "a"}),
	}
	doc, _ := render(t, d)

	hrefs := map[string]string{}
	for _, th := range findAll(doc, "th") {
		a := findAll(th, "a")[0]
		name := strings.TrimSpace(strings.TrimRight(text(a), "▲▼ "))
		hrefs[name] = attr(a, "href")
		if name == "Ano" && attr(th, "aria-sort") != "ascending" {
			t.Errorf("Ano aria-sort = %q", attr(th, "aria-sort"))
		}
	}

	if hrefs["Ano"] != "/?desc=1&filter=a&sort=Ano" {
		t.Errorf("Ano link = %q, want toggle to descending", hrefs["Ano"])
	}
	if hrefs["Nome"] != "/?filter=a&sort=Nome" {
		t.Errorf("Nome link = %q", hrefs["Nome"])
	}
}

func TestPage_Pagination(t *testing.T) {
	p := alumniPage(t, core.TableQuery{Page: 2, RowsPerPage: 1})
	doc, _ := render(t, PageData{Title: "T", Lang: language.English, Page: p})

	navs := findAll(doc, "nav")
	if len(navs) != 1 {
		t.Fatalf("nav count = %d", len(navs))
	}
	var rels []string
	for _, a := range findAll(navs[0], "a") {
		if r := attr(a, "rel"); r != "" {
			rels = append(rels, r+"="+attr(a, "href"))
		}
	}
	want := "prev=/?rows=1,next=/?page=3&rows=1"
	if strings.Join(rels, ",") != want {
		t.Errorf("prev/next = %v, want %s", rels, want)
	}
}

func TestPage_LoadingAndError(t *testing.T) {
	d := PageData{
		Title: "Alumni",
		Lang:  language.English,
		Status: core.Status{
			Loading: true,
			Err:     &core.UserMessage{Message: "Could not reach", Action: "Retry", Code: "FETCH001"},
		},
		RefreshSeconds: 3,
	}
	doc, raw := render(t, d)

	var refresh string
	for _, m := range findAll(doc, "meta") {
		if attr(m, "http-equiv") == "refresh" {
			refresh = attr(m, "content")
		}
	}
	if refresh != "3" {
		t.Errorf("meta refresh = %q, want 3", refresh)
	}
	if !strings.Contains(raw, "Loading data...") {
		t.Error("loading indicator missing")
	}
	if !strings.Contains(raw, `role="alert"`) || !strings.Contains(raw, "FETCH001") {
		t.Error("error alert missing")
	}
	if len(findAll(doc, "table")) != 0 {
		t.Error("no table expected before the first load")
	}

	d.Status.Loading = false
	doc, raw = render(t, d)
	for _, m := range findAll(doc, "meta") {
		if attr(m, "http-equiv") == "refresh" {
			t.Error("meta refresh should only be set while loading")
		}
	}
	if !strings.Contains(raw, "No data available.") {
		t.Error("empty state missing")
	}
}

func TestPage_FilterValueEscaped(t *testing.T) {
	filter := `a"><script>x</script>`
	d := PageData{
		Title: "T",
		Lang:  language.English,
		Page:  alumniPage(t, core.TableQuery{Filter: filter}),
	}
	doc, raw := render(t, d)

	if strings.Contains(raw, "<script>") {
		t.Fatal("filter value was not escaped in the search box")
	}
	var got string
	for _, in := range findAll(doc, "input") {
		if attr(in, "name") == "filter" {
			got = attr(in, "value")
		}
	}
	if got != filter {
		t.Errorf("search box value = %q, want %q", got, filter)
	}
	if !strings.Contains(raw, "No records match the filter.") {
		t.Error("no-match row missing")
	}
}

func TestPage_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := Page(PageData{Title: "T", Lang: language.English}).Render(ctx, &buf)
	if err == nil {
		t.Fatal("Render() with cancelled context should fail")
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes after cancellation", buf.Len())
	}
}

func TestErrorPage(t *testing.T) {
	var buf bytes.Buffer
	msg := core.UserMessage{Message: "Too many <requests>", Action: "Wait", Code: "RATE001"}
	if err := ErrorPage("Alumni", language.English, msg).Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Too many &lt;requests&gt;") || !strings.Contains(out, "RATE001") {
		t.Errorf("ErrorPage() = %s", out)
	}
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		current, pages int
		want           []int
	}{
		{1, 1, []int{1}},
		{1, 3, []int{1, 2, 3}},
		{5, 10, []int{1, 0, 3, 4, 5, 6, 7, 0, 10}},
		{1, 10, []int{1, 2, 3, 0, 10}},
		{10, 10, []int{1, 0, 8, 9, 10}},
	}
	for _, tt := range tests {
		got := pageWindow(tt.current, tt.pages, 2)
		if len(got) != len(tt.want) {
			t.Errorf("pageWindow(%d, %d) = %v, want %v", tt.current, tt.pages, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("pageWindow(%d, %d) = %v, want %v", tt.current, tt.pages, got, tt.want)
				break
			}
		}
	}
}

func TestLabelsFor(t *testing.T) {
	if got := labelsFor(language.BrazilianPortuguese).Reload; got != "Recarregar" {
		t.Errorf("pt-BR Reload = %q", got)
	}
	if got := labelsFor(language.German).Reload; got != "Reload" {
		t.Errorf("fallback Reload = %q", got)
	}
}
