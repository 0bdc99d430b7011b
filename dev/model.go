package dev

import (
	"github.com/udhos/clichat/conf"
)

type hasPrintf interface {
	Printf(fmt string, v ...interface{})
}

// RegisterVendors adds the built-in vendor profiles to the table.
func RegisterVendors(logger hasPrintf, t *VendorTable) {
	registerVendorCisco(logger, t)
	registerVendorCiscoIOSXR(logger, t)
	registerVendorJunOS(logger, t)
	registerVendorHuaweiVRP(logger, t)
	registerVendorMikrotik(logger, t)
	registerVendorFortiOS(logger, t)
	registerVendorDatacomDmswitch(logger, t)
	registerVendorLinux(logger, t)
}

func registerVendor(logger hasPrintf, t *VendorTable, a conf.VendorAttributes) {
	p, err := NewVendorProfile(a)
	if err != nil {
		logger.Printf("registerVendor: %v", err)
		return
	}
	t.SetVendor(p, logger)
}
