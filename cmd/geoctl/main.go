// Command geoctl runs GEO analyses and competitive comparisons from the
// terminal using the same pipeline as the HTTP service.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(buildService).Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
