package dev

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/udhos/clichat/conf"
)

// VendorUnknown is the vendor identity before detection.
const VendorUnknown = "unknown"

// VendorProfile holds the patterns and commands of one vendor CLI.
// Profiles are immutable once registered.
type VendorProfile struct {
	ID                string
	ShellPrompt       *regexp.Regexp
	ErrorLine         *regexp.Regexp // nil: no error detection
	EscalationCommand string         // empty: no privilege escalation
	PaginationCommand string         // empty: nothing to disable
	LineFilter        string
}

// NewVendorProfile compiles vendor attributes.
func NewVendorProfile(a conf.VendorAttributes) (*VendorProfile, error) {
	if a.ID == "" {
		return nil, fmt.Errorf("NewVendorProfile: missing vendor id")
	}
	if a.ShellPrompt == "" {
		return nil, fmt.Errorf("NewVendorProfile: %s: missing shell prompt pattern", a.ID)
	}

	prompt, promptErr := regexp.Compile(a.ShellPrompt)
	if promptErr != nil {
		return nil, fmt.Errorf("NewVendorProfile: %s: bad shell prompt '%s': %v", a.ID, a.ShellPrompt, promptErr)
	}

	p := &VendorProfile{
		ID:                a.ID,
		ShellPrompt:       prompt,
		EscalationCommand: a.EscalationCommand,
		PaginationCommand: a.PaginationCommand,
		LineFilter:        a.LineFilter,
	}

	if a.ErrorLine != "" {
		errLine, lineErr := regexp.Compile(a.ErrorLine)
		if lineErr != nil {
			return nil, fmt.Errorf("NewVendorProfile: %s: bad error line '%s': %v", a.ID, a.ErrorLine, lineErr)
		}
		p.ErrorLine = errLine
	}

	return p, nil
}

// VendorTable: goroutine concurrency-safe vendor profile lookup.
type VendorTable struct {
	vendors map[string]*VendorProfile // id => profile
	lock    sync.RWMutex
}

// NewVendorTable creates a table holding only the unknown vendor fallback.
func NewVendorTable() *VendorTable {
	t := &VendorTable{vendors: map[string]*VendorProfile{}}
	unknown, err := NewVendorProfile(conf.NewVendorAttr(VendorUnknown))
	if err != nil {
		panic(fmt.Sprintf("NewVendorTable: %v", err))
	}
	t.vendors[VendorUnknown] = unknown
	return t
}

// SetVendor adds or replaces a profile.
func (t *VendorTable) SetVendor(p *VendorProfile, logger hasPrintf) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if _, found := t.vendors[p.ID]; found {
		logger.Printf("VendorTable.SetVendor: replacing vendor '%s'", p.ID)
	}
	t.vendors[p.ID] = p
}

// GetVendor finds a profile by vendor id.
func (t *VendorTable) GetVendor(id string) (*VendorProfile, error) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if p, found := t.vendors[id]; found {
		return p, nil
	}
	return nil, fmt.Errorf("GetVendor: vendor '%s' not found", id)
}

// Resolve returns the profile for id, falling back to the unknown vendor.
func (t *VendorTable) Resolve(id string) *VendorProfile {
	if p, err := t.GetVendor(id); err == nil {
		return p
	}
	p, _ := t.GetVendor(VendorUnknown)
	return p
}

// ListVendors returns the registered vendor ids, sorted.
func (t *VendorTable) ListVendors() []string {
	t.lock.RLock()
	defer t.lock.RUnlock()
	ids := make([]string, 0, len(t.vendors))
	for id := range t.vendors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuildVendorTable registers the built-in vendors, then the configured ones.
func BuildVendorTable(logger hasPrintf, list []conf.VendorAttributes) (*VendorTable, error) {
	t := NewVendorTable()
	RegisterVendors(logger, t)
	for _, a := range list {
		p, err := NewVendorProfile(a)
		if err != nil {
			return nil, fmt.Errorf("BuildVendorTable: %v", err)
		}
		t.SetVendor(p, logger)
	}
	return t, nil
}
