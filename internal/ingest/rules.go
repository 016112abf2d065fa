package ingest

import (
	"regexp"
	"strings"

	"github.com/geocampo/wellflow/internal/models"
)

var wellTokenRe = regexp.MustCompile(`(?i)TR-\d+`)

// WellToken extracts the source well token (TR-<digits>, case-insensitive)
// from a vendor file name. Files without a token are rejected before any
// rows are read.
func WellToken(fileName string) (string, bool) {
	m := wellTokenRe.FindString(fileName)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

// Resolution is the routing outcome for one source well token.
type Resolution struct {
	TargetWellIDs   []string
	Action          models.RuleAction
	SplitPercentage float64
}

// Resolver maps source well tokens to target wells. An import rule whose
// source pattern equals the token exactly wins; otherwise a well with that
// exact name receives the data with an implicit assign action. The first
// rule seen for a duplicate pattern is used, matching the store's
// duplicate-pattern rejection.
type Resolver struct {
	rules map[string]models.ImportRule
	wells map[string]models.Well
}

func NewResolver(wells []models.Well, rules []models.ImportRule) *Resolver {
	r := &Resolver{
		rules: make(map[string]models.ImportRule, len(rules)),
		wells: make(map[string]models.Well, len(wells)),
	}
	for _, rule := range rules {
		if _, dup := r.rules[rule.SourcePattern]; !dup {
			r.rules[rule.SourcePattern] = rule
		}
	}
	for _, w := range wells {
		if _, dup := r.wells[w.Name]; !dup {
			r.wells[w.Name] = w
		}
	}
	return r
}

func (r *Resolver) Resolve(token string) (Resolution, bool) {
	if rule, ok := r.rules[token]; ok {
		return Resolution{
			TargetWellIDs:   rule.TargetWellIDs,
			Action:          rule.Action,
			SplitPercentage: rule.SplitPercentage,
		}, true
	}
	if w, ok := r.wells[token]; ok {
		return Resolution{TargetWellIDs: []string{w.ID}, Action: models.ActionAssign}, true
	}
	return Resolution{}, false
}
