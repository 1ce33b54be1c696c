// Package validate checks experiment input before it is sent for analysis.
package validate

import (
	"fmt"
	"strings"

	"github.com/gkobilansky/janus-goat/internal/analysis"
	"github.com/gkobilansky/janus-goat/internal/variants"
)

// Rule names a validation rule. Rules are evaluated in declaration order and
// the first failing one is the one reported to the user.
type Rule string

const (
	RuleBaselineRequired             Rule = "baseline_required"
	RuleMinVariants                  Rule = "min_variants"
	RuleBaselineNotFound             Rule = "baseline_not_found"
	RuleDuplicateName                Rule = "duplicate_name"
	RuleConversionsExceedImpressions Rule = "conversions_exceed_impressions"
	RuleNameRequired                 Rule = "name_required"
	RuleInvalidCounts                Rule = "invalid_counts"
)

// MinVariants is the smallest number of variants worth comparing.
const MinVariants = 2

// Field names used in inline flags.
const (
	FieldName        = "name"
	FieldImpressions = "impressions"
	FieldConversions = "conversions"
	FieldRevenue     = "revenue"
)

// Failure is one failed rule with the variants it implicates.
type Failure struct {
	Rule     Rule
	Variants []string
}

// FieldFlag marks one input field of one entry for inline display.
type FieldFlag struct {
	EntryID string
	Variant string
	Field   string
}

// Error lists every failed rule and every flagged field.
type Error struct {
	Baseline string
	Failures []Failure
	Flags    []FieldFlag
}

func (e *Error) Error() string {
	return e.Message()
}

// First returns the failure reported to the user.
func (e *Error) First() Failure {
	if len(e.Failures) == 0 {
		return Failure{}
	}
	return e.Failures[0]
}

// Has reports whether rule failed.
func (e *Error) Has(rule Rule) bool {
	for _, f := range e.Failures {
		if f.Rule == rule {
			return true
		}
	}
	return false
}

// Flagged reports whether the field of an entry should be marked invalid.
func (e *Error) Flagged(entryID, field string) bool {
	for _, f := range e.Flags {
		if f.EntryID == entryID && f.Field == field {
			return true
		}
	}
	return false
}

// Message returns the user-facing notice for the first failure.
func (e *Error) Message() string {
	switch e.First().Rule {
	case RuleBaselineRequired:
		return "Please specify a baseline variant."
	case RuleMinVariants:
		return "Please add at least 2 variants for comparison."
	case RuleBaselineNotFound:
		return fmt.Sprintf("Baseline variant %q does not exist. Please add it as a variant or choose an existing variant as baseline.", e.Baseline)
	case RuleDuplicateName:
		return "Duplicate variant names found. Please ensure all variants have unique names."
	case RuleConversionsExceedImpressions:
		return "Conversions cannot be greater than impressions. Please check your inputs."
	case RuleNameRequired:
		return "Every variant needs a name."
	case RuleInvalidCounts:
		return "Counts and revenue must not be negative."
	}
	return "invalid experiment input"
}

// Validate checks the baseline and the raw entries. It returns nil or an
// *Error. All rules are evaluated so every offending field gets flagged.
func Validate(baseline string, entries []variants.Entry) error {
	baseline = strings.TrimSpace(baseline)
	verr := &Error{Baseline: baseline}

	if baseline == "" {
		verr.Failures = append(verr.Failures, Failure{Rule: RuleBaselineRequired})
	}

	if len(entries) < MinVariants {
		verr.Failures = append(verr.Failures, Failure{Rule: RuleMinVariants})
	}

	if baseline != "" && !hasName(entries, baseline) {
		verr.Failures = append(verr.Failures, Failure{Rule: RuleBaselineNotFound, Variants: []string{baseline}})
	}

	if dups := duplicateNames(entries); len(dups) > 0 {
		verr.Failures = append(verr.Failures, Failure{Rule: RuleDuplicateName, Variants: dups})
		for _, e := range entries {
			if contains(dups, strings.TrimSpace(e.Name)) {
				verr.flag(e, FieldName)
			}
		}
	}

	var exceeding []string
	for _, e := range entries {
		if e.Conversions > e.Impressions {
			exceeding = append(exceeding, strings.TrimSpace(e.Name))
			verr.flag(e, FieldConversions)
		}
	}
	if len(exceeding) > 0 {
		verr.Failures = append(verr.Failures, Failure{Rule: RuleConversionsExceedImpressions, Variants: exceeding})
	}

	var unnamed []string
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			unnamed = append(unnamed, fmt.Sprintf("#%d", e.Ordinal))
			verr.flag(e, FieldName)
		}
	}
	if len(unnamed) > 0 {
		verr.Failures = append(verr.Failures, Failure{Rule: RuleNameRequired, Variants: unnamed})
	}

	var negative []string
	for _, e := range entries {
		bad := false
		if e.Impressions < 0 {
			verr.flag(e, FieldImpressions)
			bad = true
		}
		if e.Conversions < 0 {
			verr.flag(e, FieldConversions)
			bad = true
		}
		if e.Revenue < 0 {
			verr.flag(e, FieldRevenue)
			bad = true
		}
		if bad {
			negative = append(negative, strings.TrimSpace(e.Name))
		}
	}
	if len(negative) > 0 {
		verr.Failures = append(verr.Failures, Failure{Rule: RuleInvalidCounts, Variants: negative})
	}

	if len(verr.Failures) == 0 {
		return nil
	}
	return verr
}

// ValidateRequest checks a wire request with the same rules.
func ValidateRequest(req analysis.Request) error {
	entries := make([]variants.Entry, len(req.Variants))
	for i, v := range req.Variants {
		entries[i] = variants.Entry{
			ID:          fmt.Sprintf("%d", i),
			Ordinal:     i + 1,
			Name:        v.Name,
			Impressions: v.Impressions,
			Conversions: v.Conversions,
			Revenue:     v.Revenue,
		}
	}
	return Validate(req.BaselineVariant, entries)
}

// ToRequest builds the wire request from entries, trimming names and the
// baseline. Call it only after Validate succeeded.
func ToRequest(baseline string, entries []variants.Entry) analysis.Request {
	req := analysis.Request{
		Variants:        make([]analysis.Variant, len(entries)),
		BaselineVariant: strings.TrimSpace(baseline),
	}
	for i, e := range entries {
		req.Variants[i] = analysis.Variant{
			Name:        strings.TrimSpace(e.Name),
			Impressions: e.Impressions,
			Conversions: e.Conversions,
			Revenue:     e.Revenue,
		}
	}
	return req
}

func (e *Error) flag(entry variants.Entry, field string) {
	if e.Flagged(entry.ID, field) {
		return
	}
	e.Flags = append(e.Flags, FieldFlag{
		EntryID: entry.ID,
		Variant: strings.TrimSpace(entry.Name),
		Field:   field,
	})
}

func hasName(entries []variants.Entry, name string) bool {
	for _, e := range entries {
		if strings.TrimSpace(e.Name) == name {
			return true
		}
	}
	return false
}

// duplicateNames returns each repeated trimmed name once, in first-seen order.
// Blank names are left to the name_required rule.
func duplicateNames(entries []variants.Entry) []string {
	seen := make(map[string]int, len(entries))
	var dups []string
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		seen[name]++
		if seen[name] == 2 {
			dups = append(dups, name)
		}
	}
	return dups
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
