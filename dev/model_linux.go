package dev

import (
	"github.com/udhos/clichat/conf"
)

// unix hosts: no escalation, no pager.
func registerVendorLinux(logger hasPrintf, t *VendorTable) {
	a := conf.NewVendorAttr("unix")

	a.ShellPrompt = `[\r\n][^\r\n]*[$#%>] ?$`
	a.ErrorLine = `^(?:-?\w+: )?(?:[\w./-]+: )?(?:command not found|No such file or directory|Permission denied)`

	registerVendor(logger, t, a)
}
