package main

import (
	// Embedded IANA database so request timezones resolve on minimal images.
	_ "time/tzdata"

	"github.com/teemow/dealdesk/cmd"
)

// version will be set by goreleaser during build
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
