package dev

import (
	"github.com/udhos/clichat/conf"
)

func registerVendorMikrotik(logger hasPrintf, t *VendorTable) {
	a := conf.NewVendorAttr("mikrotik")

	a.ShellPrompt = `[\r\n]\[[^\[\]\r\n]+\]\s*>\s*$` // [admin@MikroTik] >
	a.ErrorLine = `^(?:bad command name|syntax error|expected end of command|failure:|input does not match)`

	registerVendor(logger, t, a)
}
