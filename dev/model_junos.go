package dev

import (
	"github.com/udhos/clichat/conf"
)

func registerVendorJunOS(logger hasPrintf, t *VendorTable) {
	a := conf.NewVendorAttr("junos")

	a.ShellPrompt = `[\r\n][\-\w+.@]+[>#%] ?$`
	a.ErrorLine = `^(?:error:|syntax error|unknown command)`
	a.PaginationCommand = "set cli screen-length 0"

	registerVendor(logger, t, a)
}
