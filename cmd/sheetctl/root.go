package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetview/internal/config"
	"github.com/JonMunkholm/sheetview/internal/core"
	"github.com/JonMunkholm/sheetview/internal/decoder"
	"github.com/JonMunkholm/sheetview/internal/export"
	"github.com/JonMunkholm/sheetview/internal/logging"
	"github.com/JonMunkholm/sheetview/internal/source"
)

// decodeFlags are shared by decode and fetch --decode.
type decodeFlags struct {
	headers     []string
	quote       string
	delimiter   string
	lenient     bool
	omitMissing bool
	pretty      bool
	format      string
}

func (f *decodeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.headers, "headers", nil, "Header names; the first line is then data")
	cmd.Flags().StringVar(&f.quote, "quote", `"`, "Quote character")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", ",", `Field delimiter ("tab" for a tab)`)
	cmd.Flags().BoolVar(&f.lenient, "lenient", false, "Recover from malformed quoting with warnings")
	cmd.Flags().BoolVar(&f.omitMissing, "omit-missing", false, "Leave absent fields out instead of null")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().StringVar(&f.format, "format", "json", "Output format: json or csv")
}

func (f *decodeFlags) options() (decoder.Options, error) {
	missing := "null"
	if f.omitMissing {
		missing = "omit"
	}
	dc := config.DecodeConfig{
		Quote:     f.quote,
		Delimiter: f.delimiter,
		Headers:   f.headers,
		Lenient:   f.lenient,
		Missing:   missing,
	}
	return dc.Options()
}

func (f *decodeFlags) validate() error {
	switch f.format {
	case "json", "csv":
		return nil
	}
	return fmt.Errorf("invalid format: %s (must be json or csv)", f.format)
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "sheetctl",
		Short: "Decode and fetch spreadsheet CSV",
		Long: `sheetctl decodes delimited text into typed JSON records and fetches
published spreadsheets, the same way the sheetview server does.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupWriter(cmd.ErrOrStderr(), logLevel, "text")
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newDecodeCmd(), newFetchCmd())
	return root
}

func newDecodeCmd() *cobra.Command {
	var df decodeFlags

	cmd := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Decode a CSV file (or stdin) into JSON records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := df.validate(); err != nil {
				return err
			}
			opts, err := df.options()
			if err != nil {
				return err
			}

			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			doc, err := decoder.Decode(raw, opts)
			if err != nil {
				return err
			}
			logWarnings(doc)
			return writeDocument(cmd.OutOrStdout(), doc, &df)
		},
	}
	df.register(cmd)
	return cmd
}

func newFetchCmd() *cobra.Command {
	var (
		df       decodeFlags
		rawURL   string
		sheetID  string
		gid      string
		timeout  time.Duration
		maxBytes int64
		decode   bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download a CSV URL or Google Sheet",
		Long: `fetch downloads --url (Google Sheets links are rewritten to their CSV
export) or the sheet given by --sheet-id and --gid. The raw text is printed
unless --decode is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := df.validate(); err != nil {
				return err
			}

			sc := config.SourceConfig{URL: rawURL, SheetID: sheetID, SheetGID: gid}
			if rawURL == "" && sheetID == "" {
				return fmt.Errorf("one of --url or --sheet-id is required")
			}
			src := source.NewHTTPSource(sc.FetchURL(), timeout, maxBytes)
			ctx := core.ContextWithTrigger(cmd.Context(), core.TriggerCLI)

			if !decode {
				p, err := src.Fetch(ctx)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), p.Text)
				return err
			}

			opts, err := df.options()
			if err != nil {
				return err
			}
			svc := core.NewService(src, core.Options{Decode: opts, LoadTimeout: timeout + 5*time.Second})
			snap, err := svc.Load(ctx)
			if err != nil {
				return err
			}
			logWarnings(snap.Document)
			return writeDocument(cmd.OutOrStdout(), snap.Document, &df)
		},
	}

	cmd.Flags().StringVar(&rawURL, "url", "", "CSV URL or Google Sheets link")
	cmd.Flags().StringVar(&sheetID, "sheet-id", "", "Google Sheets document ID")
	cmd.Flags().StringVar(&gid, "gid", "0", "Google Sheets tab ID")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	cmd.Flags().Int64Var(&maxBytes, "max-bytes", source.DefaultMaxBytes, "Maximum document size")
	cmd.Flags().BoolVar(&decode, "decode", false, "Decode into records instead of printing raw text")
	cmd.MarkFlagsMutuallyExclusive("url", "sheet-id")
	df.register(cmd)
	return cmd
}

// readInput reads the named file, or stdin for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return trimBOM(b), nil
	}

	b, err := os.ReadFile(args[0])
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", args[0])
		}
		return "", err
	}
	return trimBOM(b), nil
}

func trimBOM(b []byte) string {
	return strings.TrimPrefix(string(b), "\uFEFF")
}

func logWarnings(doc *decoder.Document) {
	for _, w := range doc.Warnings {
		slog.Warn("decode warning", "warning", w.String())
	}
}

// writeDocument prints doc as a JSON array of records or as CSV in header
// order.
func writeDocument(w io.Writer, doc *decoder.Document, df *decodeFlags) error {
	if df.format == "csv" {
		return export.WriteCSV(w, core.DeriveColumns(doc), doc.Records)
	}

	records := doc.Records
	if records == nil {
		records = []decoder.Record{}
	}
	enc := json.NewEncoder(w)
	if df.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(records)
}
