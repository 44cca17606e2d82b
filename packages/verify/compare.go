package verify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/abdul-hamid-achik/charspec/packages/assertions"
	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/extract"
	"github.com/abdul-hamid-achik/charspec/packages/report"
	"github.com/google/go-cmp/cmp"
)

// CommonFields is the field set both protocols expose for a character.
// Episodes are compared by count only.
type CommonFields struct {
	Name         string
	Status       string
	EpisodeCount int
}

// RESTFields reads CommonFields from a REST character body.
func RESTFields(root extract.Value) CommonFields {
	return CommonFields{
		Name:         root.Get("name").String(),
		Status:       root.Get("status").String(),
		EpisodeCount: root.Get("episode").Len(),
	}
}

// GraphQLFields reads CommonFields from data.character of a GraphQL body.
func GraphQLFields(root extract.Value) CommonFields {
	ch := root.Get("data.character")
	return CommonFields{
		Name:         ch.Get("name").String(),
		Status:       ch.Get("status").String(),
		EpisodeCount: ch.Get("episode").Len(),
	}
}

// Comparison is the outcome of one cross-protocol check.
type Comparison struct {
	ID      int
	REST    CommonFields
	GraphQL CommonFields
	Batch   *assertions.Batch
}

// Diff renders the differences between the two representations, "" if equal.
func (c *Comparison) Diff() string {
	return cmp.Diff(c.REST, c.GraphQL)
}

// CompareFields checks name and status exactly and episode count, all in one batch.
// Status is deliberately case-sensitive here: the two protocols should agree
// byte for byte.
func CompareFields(b *assertions.Batch, rest, gql CommonFields) {
	b.Equals("name", gql.Name, rest.Name)
	b.Equals("status", gql.Status, rest.Status)
	b.Equals("episodeCount", gql.EpisodeCount, rest.EpisodeCount)
}

// CompareCharacter fetches id over REST and GraphQL and compares the common
// field set. A GraphQL "errors" payload stops the check with a *ProtocolError.
// The returned error is the batch error when only assertions failed.
func (v *Verifier) CompareCharacter(ctx context.Context, id int) (*Comparison, error) {
	rest, err := v.fetchREST(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := catalog.ExpectStatus(rest, http.StatusOK); err != nil {
		return nil, err
	}

	gql, err := v.fetchGraphQL(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := catalog.ExpectStatus(gql, http.StatusOK); err != nil {
		return nil, err
	}
	if err := protocolError(gql); err != nil {
		return nil, err
	}

	c := &Comparison{
		ID:      id,
		REST:    RESTFields(extract.NewExtractor(rest).Root()),
		GraphQL: GraphQLFields(extract.NewExtractor(gql).Root()),
		Batch:   assertions.NewBatch(fmt.Sprintf("REST vs GraphQL id=%d", id)),
	}
	CompareFields(c.Batch, c.REST, c.GraphQL)

	if diff := c.Diff(); diff != "" {
		v.sink.Attach(report.Text(fmt.Sprintf("REST vs GraphQL diff for id=%d", id), diff))
	}
	return c, c.Batch.Err()
}

// CompareAbsence checks that REST and GraphQL both report id as nonexistent.
// How each protocol signals absence is not compared.
func (v *Verifier) CompareAbsence(ctx context.Context, id int) (*assertions.Batch, error) {
	b := assertions.NewBatch(fmt.Sprintf("absence id=%d", id))

	rest, err := v.fetchREST(ctx, id)
	if err != nil {
		return nil, err
	}
	restOutcome, err := ClassifyREST(rest)
	if err != nil {
		return nil, err
	}

	gql, err := v.fetchGraphQL(ctx, id)
	if err != nil {
		return nil, err
	}
	gqlOutcome, err := ClassifyGraphQL(gql, "data.character")
	if err != nil {
		return nil, err
	}

	rb := assertions.NewBatch("rest")
	CheckNotFound(rb, restOutcome)
	gb := assertions.NewBatch("graphql")
	CheckNotFound(gb, gqlOutcome)
	b.Merge(rb)
	b.Merge(gb)
	return b, b.Err()
}
