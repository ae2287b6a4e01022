package domain

import (
	"fmt"
	"strings"
)

const (
	PrefixFilter = "prefix"
	SuffixFilter = "suffix"
)

type FilterRule struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

func (f FilterRule) Validate() error {
	if f.Name != PrefixFilter && f.Name != SuffixFilter {
		return fmt.Errorf("expected filter rule name to be %s or %s but was %q", PrefixFilter, SuffixFilter, f.Name)
	}

	return nil
}

func (f FilterRule) FilterKey(key string) bool {
	if f.Name == PrefixFilter {
		return strings.HasPrefix(key, f.Value)
	}

	if f.Name == SuffixFilter {
		return strings.HasSuffix(key, f.Value)
	}

	panic("expected FilterRule Name to be prefix or suffix but was " + f.Name)
}

type Filter struct {
	Rules []FilterRule
}

// FilterEvents reports whether an ObjectRecord passes every rule. The
// signature matches rxgo.Predicate so it can be used to filter observables.
func (f Filter) FilterEvents(i interface{}) bool {
	record := i.(ObjectRecord)

	for _, rule := range f.Rules {
		if !rule.FilterKey(record.Key) {
			return false
		}
	}

	return true
}
