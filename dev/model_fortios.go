package dev

import (
	"github.com/udhos/clichat/conf"
)

func registerVendorFortiOS(logger hasPrintf, t *VendorTable) {
	a := conf.NewVendorAttr("fortios")

	a.ShellPrompt = `[\r\n][\-\w.]+(?: \([^)\r\n]+\))? [#$] $` // "hostname # ", "hostname (console) # "
	a.ErrorLine = `^(?:Command fail|Unknown action|command parse error)`
	a.PaginationCommand = "config system console\nset output standard\nend"

	registerVendor(logger, t, a)
}
