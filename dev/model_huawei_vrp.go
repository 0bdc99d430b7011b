package dev

import (
	"github.com/udhos/clichat/conf"
)

func registerVendorHuaweiVRP(logger hasPrintf, t *VendorTable) {
	a := conf.NewVendorAttr("huawei")

	a.ShellPrompt = `[\r\n](?:<[^<>\r\n]+>|\[[^\[\]\r\n]+\]) ?$`
	a.ErrorLine = `^\s*Error:`
	a.EscalationCommand = "super"
	a.PaginationCommand = "screen-length 0 temporary"

	registerVendor(logger, t, a)
}
