package dev

import (
	"github.com/udhos/clichat/conf"
)

func registerVendorCisco(logger hasPrintf, t *VendorTable) {
	a := conf.NewVendorAttr("cisco")

	a.ShellPrompt = `[\r\n][\-\w+.:/]+(?:\([^)\r\n]+\))?[>#] ?$`
	a.ErrorLine = `^%\s*(?:[Ee]rror|[Ii]nvalid|[Ii]ncomplete|[Uu]nrecognized|[Aa]mbiguous|[Uu]nknown|[Bb]ad|[Nn]ot)`
	a.EscalationCommand = "enable"
	a.PaginationCommand = "term len 0"
	a.LineFilter = "noop"

	registerVendor(logger, t, a)
}
