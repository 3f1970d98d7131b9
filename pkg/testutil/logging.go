package testutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Processor and store logs are noise in quiet test runs, so output is only
// kept when tests run with -v.
func init() {
	var verbose bool
	for _, arg := range os.Args {
		if arg == "-test.v=true" {
			verbose = true
			break
		}
	}

	logrus.SetLevel(logrus.TraceLevel)

	if !verbose {
		logrus.StandardLogger().Out = io.Discard
	}
}
