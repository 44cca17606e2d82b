package verify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/charspec/packages/assertions"
	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/extract"
	"github.com/abdul-hamid-achik/charspec/packages/report"
)

// PageResult is one validated page of a filtered listing.
type PageResult struct {
	Protocol Protocol
	Filter   catalog.Filter
	Info     catalog.PageInfo
	Results  []extract.Value
	Batch    *assertions.Batch
}

// ValidatePage checks one filtered page: results are non-empty and all match
// the status filter ignoring case, the info envelope is present, and "next"
// is set exactly when the page is not the last one.
func ValidatePage(b *assertions.Batch, f catalog.Filter, info extract.Value, results []extract.Value) catalog.PageInfo {
	b.NonEmpty("results", results)
	if f.Status != "" {
		assertions.AllMatch(b, "results.status", "status equalsIgnoreCase "+f.Status, results,
			func(r extract.Value) bool {
				return strings.EqualFold(r.Get("status").String(), f.Status)
			})
	}

	b.IsNotNull("info", info)
	pi := catalog.PageInfoFrom(info)
	page := f.Page
	if page == 0 {
		page = 1
	}
	if page < pi.Pages {
		b.IsNotNull("info.next", info.Get("next"))
	} else {
		b.IsNull("info.next", info.Get("next"))
	}
	if page > 1 {
		b.IsNotNull("info.prev", info.Get("prev"))
	}
	return pi
}

// VerifyFilteredPageREST lists characters over REST with f and validates the page.
func (v *Verifier) VerifyFilteredPageREST(ctx context.Context, f catalog.Filter) (*PageResult, error) {
	resp, err := v.client.Characters(ctx, f)
	if err != nil {
		return nil, err
	}
	v.sink.Attach(report.Text("Request", resp.Method+" "+resp.URL))
	v.attach("Response JSON", resp)
	if err := catalog.ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}

	ex := extract.NewExtractor(resp)
	pr := &PageResult{
		Protocol: REST,
		Filter:   f,
		Results:  ex.Extract("results").Array(),
		Batch:    assertions.NewBatch(fmt.Sprintf("REST status=%s page=%d", f.Status, f.Page)),
	}
	pr.Info = ValidatePage(pr.Batch, f, ex.Extract("info"), pr.Results)
	return pr, pr.Batch.Err()
}

// VerifyFilteredPageGraphQL runs the characters query with f and validates the
// page. An "errors" payload is a *ProtocolError.
func (v *Verifier) VerifyFilteredPageGraphQL(ctx context.Context, f catalog.Filter) (*PageResult, error) {
	resp, err := v.client.CharactersGraphQL(ctx, f)
	if err != nil {
		return nil, err
	}
	v.attach(fmt.Sprintf("GraphQL characters status=%s page=%d", f.Status, f.Page), resp)
	if err := catalog.ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	if err := protocolError(resp); err != nil {
		return nil, err
	}

	ex := extract.NewExtractor(resp)
	pr := &PageResult{
		Protocol: GraphQL,
		Filter:   f,
		Results:  ex.Extract("data.characters.results").Array(),
		Batch:    assertions.NewBatch(fmt.Sprintf("GraphQL status=%s page=%d", f.Status, f.Page)),
	}
	pr.Info = ValidatePage(pr.Batch, f, ex.Extract("data.characters.info"), pr.Results)
	return pr, pr.Batch.Err()
}

// VerifyPageBeyondLast requests the page after the last one. REST must answer
// 404 with an error message or 200 with no results; GraphQL must return an
// empty result list with no next pointer.
func (v *Verifier) VerifyPageBeyondLast(ctx context.Context, f catalog.Filter) (*assertions.Batch, error) {
	first, err := v.client.Characters(ctx, catalog.Filter{Status: f.Status, Page: 1})
	if err != nil {
		return nil, err
	}
	if err := catalog.ExpectStatus(first, http.StatusOK); err != nil {
		return nil, err
	}
	pages := int(extract.Extract(first, "info.pages").Int())
	beyond := catalog.Filter{Status: f.Status, Page: pages + 1}

	b := assertions.NewBatch(fmt.Sprintf("status=%s page=%d", beyond.Status, beyond.Page))

	rest, err := v.client.Characters(ctx, beyond)
	if err != nil {
		return nil, err
	}
	v.attach(fmt.Sprintf("REST page=%d", beyond.Page), rest)
	switch rest.StatusCode {
	case http.StatusNotFound:
		b.NonEmpty("rest.error", extract.Extract(rest, "error"))
	case http.StatusOK:
		b.Equals("rest.results.length", extract.Extract(rest, "results").Len(), 0)
	default:
		return nil, catalog.ExpectStatus(rest, http.StatusOK, http.StatusNotFound)
	}

	gql, err := v.client.CharactersGraphQL(ctx, beyond)
	if err != nil {
		return nil, err
	}
	v.attach(fmt.Sprintf("GraphQL page=%d", beyond.Page), gql)
	if err := catalog.ExpectStatus(gql, http.StatusOK); err != nil {
		return nil, err
	}
	if err := protocolError(gql); err != nil {
		return nil, err
	}
	b.Equals("graphql.results.length", extract.Extract(gql, "data.characters.results").Len(), 0)
	b.IsNull("graphql.info.next", extract.Extract(gql, "data.characters.info.next"))
	return b, b.Err()
}
