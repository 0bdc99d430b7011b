package dev

import (
	"github.com/udhos/clichat/conf"
)

// IOS XR lands in privileged mode after login: no escalation command.
func registerVendorCiscoIOSXR(logger hasPrintf, t *VendorTable) {
	a := conf.NewVendorAttr("iosxr")

	a.ShellPrompt = `[\r\n](?:RP/\d+/\w+/CPU\d+:)?[\-\w.]+(?:\([^)\r\n]+\))?[>#] ?$`
	a.ErrorLine = `^%\s*(?:[Ii]nvalid|[Ii]ncomplete|[Aa]mbiguous|[Bb]ad|[Ff]ailed)`
	a.PaginationCommand = "terminal length 0"
	a.LineFilter = "iosxr" // drop timestamp and build lines from every capture

	registerVendor(logger, t, a)
}
