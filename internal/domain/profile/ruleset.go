// Package profile holds the versioned rule-set aggregate that learning
// outcomes are merged into, along with the updater that produces new
// versions and the repository port its persistence goes through.
package profile

import (
	"time"

	"github.com/wucy1/ProDocuX/pkg/errors"
	"github.com/wucy1/ProDocuX/pkg/types/learning"
)

// RuleSet is one version of a profile: the field list extraction is guided
// by, plus the stable transformation rules learned for those fields.
// Versions are monotonically increasing and never reused; every prior
// version is retained by the repository for rollback.
type RuleSet struct {
	Name        string                        `json:"name"`
	WorkID      string                        `json:"work_id"`
	Description string                        `json:"description,omitempty"`
	Version     int                           `json:"version"`
	Fields      []Field                       `json:"fields"`
	Rules       []learning.TransformationRule `json:"rules"`
	CreatedAt   time.Time                     `json:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
}

// Field is one extraction target the profile knows about.  Aliases are the
// alternative labels a document may use for it; Hints carries free-form
// per-field metadata the updater merges into non-destructively.
type Field struct {
	Name    string                 `json:"name"`
	Aliases []string               `json:"aliases,omitempty"`
	Hints   map[string]interface{} `json:"hints,omitempty"`
}

// NewRuleSet creates version 1 of a profile.
func NewRuleSet(name, workID string, fields []Field) (*RuleSet, error) {
	if name == "" {
		return nil, errors.InvalidParam("profile name is required")
	}
	now := time.Now().UTC()
	return &RuleSet{
		Name:      name,
		WorkID:    workID,
		Version:   1,
		Fields:    fields,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DeriveForWork creates version 1 of a work-scoped profile seeded from a
// base profile's fields and rules.
func (r *RuleSet) DeriveForWork(workID, name string) *RuleSet {
	derived := r.Clone()
	derived.Name = name
	derived.WorkID = workID
	derived.Version = 1
	now := time.Now().UTC()
	derived.CreatedAt = now
	derived.UpdatedAt = now
	return derived
}

// FieldNames returns the declared field names in order.
func (r *RuleSet) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// RuleFor returns the rule recorded for a field path, or nil.
func (r *RuleSet) RuleFor(path string) *learning.TransformationRule {
	for i := range r.Rules {
		if r.Rules[i].FieldPath == path {
			return &r.Rules[i]
		}
	}
	return nil
}

// Clone returns a deep copy.  The updater works exclusively on clones so a
// failed merge can never leave a half-mutated rule set behind.
func (r *RuleSet) Clone() *RuleSet {
	out := *r
	out.Fields = make([]Field, len(r.Fields))
	for i, f := range r.Fields {
		cf := f
		cf.Aliases = append([]string(nil), f.Aliases...)
		if f.Hints != nil {
			cf.Hints = make(map[string]interface{}, len(f.Hints))
			for k, v := range f.Hints {
				cf.Hints[k] = deepCopyValue(v)
			}
		}
		out.Fields[i] = cf
	}
	out.Rules = append([]learning.TransformationRule(nil), r.Rules...)
	return &out
}

func deepCopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = deepCopyValue(e)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = deepCopyValue(e)
		}
		return s
	default:
		return t
	}
}
