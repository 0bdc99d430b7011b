package dev

import (
	"github.com/udhos/clichat/conf"
)

func registerVendorDatacomDmswitch(logger hasPrintf, t *VendorTable) {
	a := conf.NewVendorAttr("dmswitch")

	a.ShellPrompt = `[\r\n][^#\s]+# ?$`
	a.ErrorLine = `^%\s*(?:[Ii]nvalid|[Ii]ncomplete|[Uu]nknown|[Aa]mbiguous)`
	a.PaginationCommand = "no terminal paging"

	registerVendor(logger, t, a)
}
