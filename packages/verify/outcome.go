package verify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/abdul-hamid-achik/charspec/packages/assertions"
	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/extract"
	chttp "github.com/abdul-hamid-achik/charspec/packages/http"
)

// Outcome is how a single-character lookup resolved. The concrete types are
// Found, NotFoundREST, GraphQLErrors and GraphQLNullData.
type Outcome interface {
	outcome()
	String() string
}

// Found means the lookup returned a character.
type Found struct {
	Protocol Protocol
	Value    extract.Value
}

// NotFoundREST is a REST 404 with its error message.
type NotFoundREST struct {
	Status  int
	Message string
}

// GraphQLErrors is a GraphQL response whose "errors" field is populated.
type GraphQLErrors struct {
	Errors []catalog.GraphQLError
	Raw    string
}

// GraphQLNullData is a GraphQL response with no errors and a null result.
// Value is what was found at Path, absent or JSON null.
type GraphQLNullData struct {
	Path  string
	Value extract.Value
}

func (Found) outcome()           {}
func (NotFoundREST) outcome()    {}
func (GraphQLErrors) outcome()   {}
func (GraphQLNullData) outcome() {}

func (o Found) String() string { return fmt.Sprintf("%s found", o.Protocol) }

func (o NotFoundREST) String() string {
	return fmt.Sprintf("REST %d %q", o.Status, o.Message)
}

func (o GraphQLErrors) String() string { return "GraphQL errors " + o.Raw }

func (o GraphQLNullData) String() string { return "GraphQL null " + o.Path }

// ClassifyREST maps a REST lookup response onto an Outcome. Any status other
// than 200 or 404 is a *catalog.StatusError.
func ClassifyREST(resp *chttp.Response) (Outcome, error) {
	switch resp.StatusCode {
	case http.StatusOK:
		return Found{Protocol: REST, Value: extract.NewExtractor(resp).Root()}, nil
	case http.StatusNotFound:
		return NotFoundREST{Status: resp.StatusCode, Message: extract.Extract(resp, "error").String()}, nil
	default:
		return nil, catalog.ExpectStatus(resp, http.StatusOK, http.StatusNotFound)
	}
}

// ClassifyGraphQL maps a GraphQL response onto an Outcome; dataPath locates
// the queried object, e.g. "data.character".
func ClassifyGraphQL(resp *chttp.Response, dataPath string) (Outcome, error) {
	if err := catalog.ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, err
	}
	ex := extract.NewExtractor(resp)
	if errs := ex.Extract("errors"); !errs.Missing() {
		decoded, _ := catalog.GraphQLErrors(resp)
		return GraphQLErrors{Errors: decoded, Raw: errs.Raw()}, nil
	}
	data := ex.Extract(dataPath)
	if data.Missing() {
		return GraphQLNullData{Path: dataPath, Value: data}, nil
	}
	return Found{Protocol: GraphQL, Value: data}, nil
}

// CheckNotFound records whether o is a well-formed "does not exist" signal.
// Found is a failure; each absence variant has its own shape requirement.
func CheckNotFound(b *assertions.Batch, o Outcome) {
	switch o := o.(type) {
	case Found:
		b.Fail("outcome", fmt.Sprintf("expected the character to be absent, but %s returned it", o.Protocol))
	case NotFoundREST:
		b.Equals("statusCode", o.Status, http.StatusNotFound)
		b.NonEmpty("error", o.Message)
	case GraphQLErrors:
		b.Check("errors", len(o.Errors) > 0, "expected at least one error entry, got %s", o.Raw)
		for i, e := range o.Errors {
			b.NonEmpty(fmt.Sprintf("errors[%d].message", i), e.Message)
		}
	case GraphQLNullData:
		b.IsNull(o.Path, o.Value)
	default:
		b.Fail("outcome", fmt.Sprintf("unhandled outcome %T", o))
	}
}

// NegativeResult is what a negative lookup produced.
type NegativeResult struct {
	ID      int
	Outcome Outcome
	Batch   *assertions.Batch
}

// VerifyMissingREST requests id over REST and expects a 404 with an error message.
func (v *Verifier) VerifyMissingREST(ctx context.Context, id int) (*NegativeResult, error) {
	resp, err := v.fetchREST(ctx, id)
	if err != nil {
		return nil, err
	}
	o, err := ClassifyREST(resp)
	if err != nil {
		return nil, err
	}
	b := assertions.NewBatch(fmt.Sprintf("REST missing id=%d", id))
	CheckNotFound(b, o)
	return &NegativeResult{ID: id, Outcome: o, Batch: b}, b.Err()
}

// VerifyMissingGraphQL requests id over GraphQL and accepts either an errors
// payload or a null character.
func (v *Verifier) VerifyMissingGraphQL(ctx context.Context, id int) (*NegativeResult, error) {
	resp, err := v.fetchGraphQL(ctx, id)
	if err != nil {
		return nil, err
	}
	o, err := ClassifyGraphQL(resp, "data.character")
	if err != nil {
		return nil, err
	}
	b := assertions.NewBatch(fmt.Sprintf("GraphQL missing id=%d", id))
	CheckNotFound(b, o)
	return &NegativeResult{ID: id, Outcome: o, Batch: b}, b.Err()
}
