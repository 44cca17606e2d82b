package scenario

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/charspec/packages/assertions"
	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/verify"
)

// Builtin returns the scenario set for p, ordered rest, graphql, cross.
func Builtin(p Params) []*Scenario {
	filter := catalog.Filter{Status: p.FilterStatus, Page: p.FilterPage}

	scenarios := []*Scenario{
		{
			Name:    "Get character by id",
			Feature: FeatureREST,
			Story:   fmt.Sprintf("GET /api/character/%d returns %s with at least one episode", p.KnownID, p.KnownName),
			Tags:    []string{"smoke"},
			Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
				return v.VerifyCharacterREST(ctx, p.KnownID, p.KnownName)
			},
		},
		{
			Name:    "Filter characters by status and page",
			Feature: FeatureREST,
			Story:   fmt.Sprintf("Every result on page %d of status=%s matches the filter and a next page is linked", p.FilterPage, p.FilterStatus),
			Tags:    []string{"pagination"},
			Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
				pr, err := v.VerifyFilteredPageREST(ctx, filter)
				return pageBatch(pr), err
			},
		},
		{
			Name:    "Get character with invalid id",
			Feature: FeatureREST,
			Story:   fmt.Sprintf("GET /api/character/%d answers 404 with an error message", p.MissingID),
			Tags:    []string{"negative"},
			Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
				res, err := v.VerifyMissingREST(ctx, p.MissingID)
				return negativeBatch(res), err
			},
		},
		{
			Name:    "Character schema is complete",
			Feature: FeatureREST,
			Story:   fmt.Sprintf("Every attribute of character %d is populated and the body matches the schema", p.KnownID),
			Tags:    []string{"schema"},
			Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
				_, b, err := v.VerifyCharacterSchema(ctx, p.KnownID)
				return b, err
			},
		},
		{
			Name:    "Get character by id over GraphQL",
			Feature: FeatureGraphQL,
			Story:   fmt.Sprintf("character(id: %d) returns %s with at least one episode", p.KnownID, p.KnownName),
			Tags:    []string{"smoke"},
			Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
				return v.VerifyCharacterGraphQL(ctx, p.KnownID, p.KnownName)
			},
		},
		{
			Name:    "Filter characters over GraphQL",
			Feature: FeatureGraphQL,
			Story:   fmt.Sprintf("characters(page: %d, filter: {status: %s}) matches the filter and reports a next page", p.FilterPage, p.FilterStatus),
			Tags:    []string{"pagination"},
			Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
				pr, err := v.VerifyFilteredPageGraphQL(ctx, filter)
				return pageBatch(pr), err
			},
		},
		{
			Name:    "Get character with invalid id over GraphQL",
			Feature: FeatureGraphQL,
			Story:   fmt.Sprintf("character(id: %d) answers with errors or a null character", p.MissingID),
			Tags:    []string{"negative"},
			Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
				res, err := v.VerifyMissingGraphQL(ctx, p.MissingID)
				return negativeBatch(res), err
			},
		},
	}

	for _, id := range p.CharacterIDs {
		scenarios = append(scenarios, &Scenario{
			Name:    fmt.Sprintf("REST and GraphQL agree for id=%d", id),
			Feature: FeatureCross,
			Story:   "Name and status match exactly and both list the same number of episodes",
			Tags:    []string{"parity"},
			Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
				c, err := v.CompareCharacter(ctx, id)
				if c == nil {
					return nil, err
				}
				return c.Batch, err
			},
		})
	}

	scenarios = append(scenarios,
		&Scenario{
			Name:    "REST and GraphQL agree on a missing id",
			Feature: FeatureCross,
			Story:   fmt.Sprintf("Both protocols report character %d as absent", p.MissingID),
			Tags:    []string{"parity", "negative"},
			Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
				return v.CompareAbsence(ctx, p.MissingID)
			},
		},
		&Scenario{
			Name:    "Repeated lookups are stable",
			Feature: FeatureCross,
			Story:   fmt.Sprintf("%d lookups of character %d return the same name, status and episode count", p.Repeat, p.KnownID),
			Tags:    []string{"idempotence"},
			Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
				return v.VerifyStableLookup(ctx, p.KnownID, p.Repeat)
			},
		},
		&Scenario{
			Name:    "Pages past the last are empty",
			Feature: FeatureCross,
			Story:   fmt.Sprintf("The page after the last status=%s page has no results on either protocol", p.FilterStatus),
			Tags:    []string{"pagination"},
			Run: func(ctx context.Context, v *verify.Verifier) (*assertions.Batch, error) {
				return v.VerifyPageBeyondLast(ctx, catalog.Filter{Status: p.FilterStatus})
			},
		},
	)
	return scenarios
}

func pageBatch(pr *verify.PageResult) *assertions.Batch {
	if pr == nil {
		return nil
	}
	return pr.Batch
}

func negativeBatch(res *verify.NegativeResult) *assertions.Batch {
	if res == nil {
		return nil
	}
	return res.Batch
}
