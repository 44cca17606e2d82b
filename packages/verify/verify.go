// Package verify holds the response validators: the REST/GraphQL comparator,
// the pagination and filter validator, the negative-case validator and the
// schema completeness check.
//
// Each validator fetches what it needs through a catalog.Client, attaches the
// raw responses to a report.Sink, and returns a result carrying an
// assertions.Batch. Transport failures, unexpected status codes and GraphQL
// error payloads come back as errors; property violations come back through
// the batch.
package verify

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/extract"
	"github.com/abdul-hamid-achik/charspec/packages/http"
	"github.com/abdul-hamid-achik/charspec/packages/report"
)

// Protocol names one of the two access paths to the catalog.
type Protocol string

const (
	REST    Protocol = "REST"
	GraphQL Protocol = "GraphQL"
)

// ProtocolError means a GraphQL response carried a populated "errors" field.
type ProtocolError struct {
	Errors []catalog.GraphQLError
	Raw    string
}

func (e *ProtocolError) Error() string {
	return "graphql returned errors: " + e.Raw
}

// Verifier runs validators against one catalog.
type Verifier struct {
	client *catalog.Client
	sink   report.Sink
}

func New(client *catalog.Client, sink report.Sink) *Verifier {
	if sink == nil {
		sink = report.Nop{}
	}
	return &Verifier{client: client, sink: sink}
}

func (v *Verifier) attach(label string, resp *http.Response) {
	v.sink.Attach(report.JSON(label, resp.BodyString()))
}

// protocolError returns a *ProtocolError when resp has a non-null "errors" field.
func protocolError(resp *http.Response) error {
	errs := extract.Extract(resp, "errors")
	if errs.Missing() {
		return nil
	}
	decoded, _ := catalog.GraphQLErrors(resp)
	return &ProtocolError{Errors: decoded, Raw: errs.Raw()}
}

func (v *Verifier) fetchREST(ctx context.Context, id int) (*http.Response, error) {
	resp, err := v.client.Character(ctx, id)
	if err != nil {
		return nil, err
	}
	v.attach(fmt.Sprintf("REST response for id=%d", id), resp)
	return resp, nil
}

func (v *Verifier) fetchGraphQL(ctx context.Context, id int) (*http.Response, error) {
	resp, err := v.client.CharacterGraphQL(ctx, id)
	if err != nil {
		return nil, err
	}
	v.attach(fmt.Sprintf("GraphQL response for id=%d", id), resp)
	return resp, nil
}
