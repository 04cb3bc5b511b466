package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/sheetview/internal/decoder"
	"github.com/JonMunkholm/sheetview/internal/source"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{
			name:  "stdin with header line",
			stdin: "Nome,Ano\nAna,2020\n",
			args:  []string{"decode"},
			want:  `[{"Ano":2020,"Nome":"Ana"}]` + "\n",
		},
		{
			name:  "explicit headers and semicolon",
			stdin: "Ana;0\n",
			args:  []string{"decode", "-", "--headers", "Nome,Nota", "--delimiter", ";"},
			want:  `[{"Nome":"Ana","Nota":0}]` + "\n",
		},
		{
			name:  "short line with omit",
			stdin: "a,b\n1\n",
			args:  []string{"decode", "--omit-missing"},
			want:  `[{"a":1}]` + "\n",
		},
		{
			name:  "short line with null",
			stdin: "a,b\n1\n",
			args:  []string{"decode"},
			want:  `[{"a":1,"b":null}]` + "\n",
		},
		{
			name:  "csv output keeps header order",
			stdin: "Nome,Ano\nAna,2020\n\"Silva, B\",\n",
			args:  []string{"decode", "--format", "csv"},
			want:  "Nome,Ano\nAna,2020\n\"Silva, B\",\n",
		},
		{
			name:  "empty input",
			stdin: "",
			args:  []string{"decode"},
			want:  "[]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, tt.stdin, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestDecode_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alumni.csv")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFNome\nAna\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "", "decode", path, "--pretty")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := "[\n  {\n    \"Nome\": \"Ana\"\n  }\n]\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	_, _, err = run(t, "", "decode", filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Errorf("missing file error = %v", err)
	}
}

func TestDecode_Errors(t *testing.T) {
	_, _, err := run(t, "a\n\"open\n", "decode")
	var pe *decoder.ParseError
	if !errors.As(err, &pe) || !errors.Is(err, decoder.ErrUnterminatedQuote) {
		t.Errorf("strict decode error = %v, want unterminated quote", err)
	}

	out, logs, err := run(t, "a\n\"open\n", "decode", "--lenient")
	if err != nil {
		t.Fatalf("lenient decode error = %v", err)
	}
	if out != `[{"a":"open\n"}]`+"\n" {
		t.Errorf("lenient output = %q", out)
	}
	if !strings.Contains(logs, "decode warning") {
		t.Errorf("warnings not logged to stderr: %q", logs)
	}

	if _, _, err := run(t, "", "decode", "--quote", ","); err == nil {
		t.Error("quote equal to delimiter should fail")
	}
	if _, _, err := run(t, "", "decode", "--format", "xml"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("Nome,Ano\nAna,2020\n"))
	}))
	defer srv.Close()

	out, _, err := run(t, "", "fetch", "--url", srv.URL+"/sheet.csv")
	if err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	if out != "Nome,Ano\nAna,2020\n" {
		t.Errorf("raw output = %q", out)
	}

	out, _, err = run(t, "", "fetch", "--url", srv.URL+"/sheet.csv", "--decode")
	if err != nil {
		t.Fatalf("fetch --decode error = %v", err)
	}
	if out != `[{"Ano":2020,"Nome":"Ana"}]`+"\n" {
		t.Errorf("decoded output = %q", out)
	}

	_, _, err = run(t, "", "fetch", "--url", srv.URL+"/missing")
	if source.KindOf(err) != source.KindStatus {
		t.Errorf("KindOf(%v) = %q, want status", err, source.KindOf(err))
	}

	if _, _, err := run(t, "", "fetch"); err == nil {
		t.Error("fetch without a URL should fail")
	}
}
