package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/charspec/packages/assertions"
	"github.com/abdul-hamid-achik/charspec/packages/verify"
)

// Feature groups scenarios by the protocol surface they exercise.
type Feature string

const (
	FeatureREST    Feature = "rest"
	FeatureGraphQL Feature = "graphql"
	FeatureCross   Feature = "cross"
)

// Features lists every feature in display order.
var Features = []Feature{FeatureREST, FeatureGraphQL, FeatureCross}

// ParseFeature accepts a feature name in any case.
func ParseFeature(s string) (Feature, error) {
	for _, f := range Features {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feature %q (expected rest, graphql or cross)", s)
}

// RunFunc executes one scenario against a verifier bound to the scenario's
// own report sink.
type RunFunc func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error)

type Scenario struct {
	Name    string
	Feature Feature
	Story   string
	Tags    []string
	Run     RunFunc
}

// Params are the inputs the built-in scenarios are generated from.
type Params struct {
	CharacterIDs []int
	MissingID    int
	FilterStatus string
	FilterPage   int
	KnownID      int
	KnownName    string
	Repeat       int
}

func DefaultParams() Params {
	return Params{
		CharacterIDs: []int{1, 2, 3, 4},
		MissingID:    999999,
		FilterStatus: "alive",
		FilterPage:   2,
		KnownID:      1,
		KnownName:    "Rick Sanchez",
		Repeat:       3,
	}
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if pattern[0] == '*' && pattern[len(pattern)-1] == '*' && len(pattern) > 1 {
		return strings.Contains(name, pattern[1:len(pattern)-1])
	}
	if pattern[0] == '*' {
		return strings.HasSuffix(name, pattern[1:])
	}
	if pattern[len(pattern)-1] == '*' {
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	}
	return name == pattern
}

func hasAnyTag(tags []string, filters []string) bool {
	for _, filter := range filters {
		for _, tag := range tags {
			if tag == filter {
				return true
			}
		}
	}
	return false
}
