// Command radiusauth is a CLI client for testing RADIUS authentication:
// PAP, CHAP-MD5, MS-CHAP v1, and EAP/MS-CHAP v2, including the RFC 2759
// change-password flow.
package main

import (
	"github.com/kulaginds/go-radius-client/cmd/radiusauth/commands"
)

var (
	appName    = "radiusauth"
	appVersion = "dev" // injected at build time via -ldflags
)

func main() {
	commands.Execute(appVersion)
}
