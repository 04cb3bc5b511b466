// Command sheetctl decodes and fetches spreadsheet CSV from the command line.
//
//	sheetctl decode alumni.csv --pretty
//	sheetctl fetch --sheet-id 13fiUy_... --gid 898476419 --decode --format csv
package main

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/sheetview/internal/core"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if core.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		}
		os.Exit(1)
	}
}
