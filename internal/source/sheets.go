package source

import (
	"net/url"
	"strings"
)

// sheetsHost serves Google Sheets documents and their exports.
const sheetsHost = "docs.google.com"

// SheetExportURL returns the CSV export URL of one tab of a Google Sheet.
// An empty gid exports the first tab.
func SheetExportURL(sheetID, gid string) string {
	u := url.URL{
		Scheme: "https",
		Host:   sheetsHost,
		Path:   "/spreadsheets/d/" + sheetID + "/export",
	}
	q := url.Values{}
	q.Set("format", "csv")
	if gid != "" {
		q.Set("gid", gid)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ParseSheetURL extracts the sheet ID and tab gid from a Google Sheets
// link such as .../spreadsheets/d/<id>/edit#gid=<gid>. ok is false for
// anything that is not a Sheets document URL.
func ParseSheetURL(raw string) (sheetID, gid string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host != sheetsHost {
		return "", "", false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "spreadsheets" || parts[1] != "d" || parts[2] == "" {
		return "", "", false
	}
	sheetID = parts[2]

	gid = u.Query().Get("gid")
	if gid == "" && u.Fragment != "" {
		if frag, err := url.ParseQuery(u.Fragment); err == nil {
			gid = frag.Get("gid")
		}
	}
	return sheetID, gid, true
}

// ExportURL rewrites a Google Sheets link into its CSV export URL and
// returns any other URL unchanged.
func ExportURL(raw string) string {
	id, gid, ok := ParseSheetURL(raw)
	if !ok {
		return raw
	}
	return SheetExportURL(id, gid)
}
