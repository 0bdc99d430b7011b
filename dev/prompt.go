package dev

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/udhos/clichat/conf"
)

// Category tags what a prompt rule recognizes.
// The numeric order is the evaluation priority: failure detection first,
// shell prompt fallback last.
type Category int

const (
	CategoryLoginFailure Category = iota
	CategoryUserPrompt
	CategoryOTPChallenge
	CategoryCleartextPassword
	CategoryVendorBanner
	CategoryShellPrompt
)

var categoryNames = map[Category]string{
	CategoryLoginFailure:      "login-failure",
	CategoryUserPrompt:        "user-prompt",
	CategoryOTPChallenge:      "otp-challenge",
	CategoryCleartextPassword: "cleartext-password",
	CategoryVendorBanner:      "vendor-banner",
	CategoryShellPrompt:       "shell-prompt",
}

func (c Category) String() string {
	if name, found := categoryNames[c]; found {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory maps a configuration label into a Category.
func ParseCategory(name string) (Category, error) {
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return -1, fmt.Errorf("ParseCategory: unknown category '%s'", name)
}

// PromptRule is one labeled pattern.
// Vendor is only meaningful for user prompts, vendor banners and
// shell prompts.
type PromptRule struct {
	Category Category
	Vendor   string
	Pattern  *regexp.Regexp
}

func (r PromptRule) String() string {
	if r.Vendor != "" {
		return fmt.Sprintf("%s(%s)", r.Category, r.Vendor)
	}
	return r.Category.String()
}

// PromptTable is an immutable priority-ordered rule set.
// Sessions with different tables may coexist.
type PromptTable struct {
	rules []PromptRule
}

// NewPromptTable sorts rules by category priority, keeping the given order
// among rules of the same category.
func NewPromptTable(rules ...PromptRule) *PromptTable {
	sorted := make([]PromptRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Category < sorted[j].Category
	})
	return &PromptTable{rules: sorted}
}

// Rules returns a copy of the ordered rules.
func (t *PromptTable) Rules() []PromptRule {
	r := make([]PromptRule, len(t.rules))
	copy(r, t.rules)
	return r
}

// Only returns the rules of the given categories, in table order.
func (t *PromptTable) Only(categories ...Category) []PromptRule {
	var r []PromptRule
	for _, rule := range t.rules {
		for _, c := range categories {
			if rule.Category == c {
				r = append(r, rule)
				break
			}
		}
	}
	return r
}

// BuildPromptTable compiles configured rules.
// An empty list yields the default table.
func BuildPromptTable(list []conf.PromptRule) (*PromptTable, error) {
	if len(list) < 1 {
		list = conf.DefaultPromptRules()
	}

	rules := make([]PromptRule, 0, len(list))

	for i, p := range list {
		c, catErr := ParseCategory(p.Category)
		if catErr != nil {
			return nil, fmt.Errorf("BuildPromptTable: rule %d: %v", i, catErr)
		}
		switch c {
		case CategoryUserPrompt, CategoryVendorBanner:
			if p.Vendor == "" {
				return nil, fmt.Errorf("BuildPromptTable: rule %d: %s requires vendor", i, c)
			}
		}
		exp, badExp := regexp.Compile(p.Pattern)
		if badExp != nil {
			return nil, fmt.Errorf("BuildPromptTable: rule %d: bad pattern '%s': %v", i, p.Pattern, badExp)
		}
		if c == CategoryOTPChallenge && exp.NumSubexp() < 2 {
			return nil, fmt.Errorf("BuildPromptTable: rule %d: otp pattern needs sequence and seed groups: '%s'", i, p.Pattern)
		}
		rules = append(rules, PromptRule{Category: c, Vendor: p.Vendor, Pattern: exp})
	}

	return NewPromptTable(rules...), nil
}

// DefaultPromptTable compiles the built-in rules.
func DefaultPromptTable() *PromptTable {
	t, err := BuildPromptTable(nil)
	if err != nil {
		panic(fmt.Sprintf("DefaultPromptTable: %v", err))
	}
	return t
}
