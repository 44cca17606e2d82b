package verify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/abdul-hamid-achik/charspec/packages/assertions"
	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/extract"
	"github.com/abdul-hamid-achik/charspec/packages/report"
)

// VerifyCharacterREST fetches id over REST and checks its name and that it
// appears in at least one episode.
func (v *Verifier) VerifyCharacterREST(ctx context.Context, id int, expectedName string) (*assertions.Batch, error) {
	resp, err := v.client.Character(ctx, id)
	if err != nil {
		return nil, err
	}
	v.sink.Attach(report.Text("Request", resp.Method+" "+resp.URL))
	v.attach("Response JSON", resp)
	if err := catalog.ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	root := extract.NewExtractor(resp).Root()
	b := assertions.NewBatch(fmt.Sprintf("REST id=%d", id))
	b.Equals("id", root.Get("id"), id)
	b.Equals("name", root.Get("name"), expectedName)
	b.NonEmpty("episode", root.Get("episode"))
	return b, b.Err()
}

// VerifyCharacterGraphQL is VerifyCharacterREST over GraphQL.
func (v *Verifier) VerifyCharacterGraphQL(ctx context.Context, id int, expectedName string) (*assertions.Batch, error) {
	resp, err := v.fetchGraphQL(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := catalog.ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	if err := protocolError(resp); err != nil {
		return nil, err
	}

	ch := extract.Extract(resp, "data.character")
	b := assertions.NewBatch(fmt.Sprintf("GraphQL id=%d", id))
	b.IsNotNull("data.character", ch)
	b.Equals("id", ch.Get("id"), id)
	b.Equals("name", ch.Get("name"), expectedName)
	b.NonEmpty("episode", ch.Get("episode"))
	return b, b.Err()
}

// VerifyStableLookup fetches id over REST the given number of times and
// checks every response carries the same common fields as the first.
func (v *Verifier) VerifyStableLookup(ctx context.Context, id, times int) (*assertions.Batch, error) {
	if times < 2 {
		times = 2
	}
	b := assertions.NewBatch(fmt.Sprintf("stable id=%d", id))

	var first CommonFields
	for i := 0; i < times; i++ {
		resp, err := v.client.Character(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := catalog.ExpectStatus(resp, http.StatusOK); err != nil {
			return nil, err
		}
		got := RESTFields(extract.NewExtractor(resp).Root())
		if i == 0 {
			first = got
			v.attach(fmt.Sprintf("REST response for id=%d", id), resp)
			continue
		}
		b.Equals(fmt.Sprintf("attempt[%d]", i), got, first)
	}
	return b, b.Err()
}
