package verify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/charspec/packages/assertions"
	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/extract"
	chttp "github.com/abdul-hamid-achik/charspec/packages/http"
	"github.com/abdul-hamid-achik/charspec/packages/mock"
	"github.com/abdul-hamid-achik/charspec/packages/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T, opts ...mock.Option) (*Verifier, *report.MemorySink) {
	t.Helper()
	srv := httptest.NewServer(mock.NewServer(opts...).Handler())
	t.Cleanup(srv.Close)
	sink := report.NewMemorySink()
	return New(catalog.NewClient(srv.URL, nil), sink), sink
}

func newVerifierWithHandler(t *testing.T, h http.HandlerFunc) *Verifier {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(catalog.NewClient(srv.URL, nil), nil)
}

func TestCompareCharacter_Agree(t *testing.T) {
	v, sink := newVerifier(t)

	for id := 1; id <= 4; id++ {
		c, err := v.CompareCharacter(context.Background(), id)
		require.NoError(t, err, "id=%d", id)
		assert.True(t, c.Batch.Passed())
		assert.Equal(t, c.REST, c.GraphQL)
		assert.Empty(t, c.Diff())
	}

	_, ok := sink.Find("REST response for id=3")
	assert.True(t, ok)
	_, ok = sink.Find("GraphQL response for id=3")
	assert.True(t, ok)
	_, ok = sink.Find("REST vs GraphQL diff for id=3")
	assert.False(t, ok)
}

func TestCompareCharacter_ReportsEveryMismatch(t *testing.T) {
	v, sink := newVerifier(t, mock.WithGraphQLRewrite(func(c *catalog.Character) {
		c.Name = strings.ToUpper(c.Name)
		c.Status = strings.ToLower(c.Status)
		c.Episode = c.Episode[:1]
	}))

	c, err := v.CompareCharacter(context.Background(), 1)
	require.Error(t, err)

	var ae *assertions.AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Len(t, ae.Failures, 3)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "status")
	assert.Contains(t, err.Error(), "episodeCount")

	require.NotNil(t, c)
	assert.Equal(t, 1, c.GraphQL.EpisodeCount)
	assert.Equal(t, 51, c.REST.EpisodeCount)

	diff, ok := sink.Find("REST vs GraphQL diff for id=1")
	require.True(t, ok)
	assert.Contains(t, diff.Payload, "RICK SANCHEZ")
}

func TestCompareCharacter_StatusIsCaseSensitive(t *testing.T) {
	v, _ := newVerifier(t, mock.WithGraphQLRewrite(func(c *catalog.Character) {
		c.Status = strings.ToUpper(c.Status)
	}))

	c, err := v.CompareCharacter(context.Background(), 2)
	require.Error(t, err)
	require.Len(t, c.Batch.Failures(), 1)
	assert.Equal(t, "status", c.Batch.Failures()[0].Subject)
}

func TestCompareCharacter_GraphQLErrors(t *testing.T) {
	v, _ := newVerifier(t, mock.WithGraphQLNotFoundErrors(true))

	_, err := v.CompareCharacter(context.Background(), 999999)
	require.Error(t, err)
	// REST answers 404 first
	var se *catalog.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 404, se.Actual)
}

func TestCompareCharacter_ProtocolError(t *testing.T) {
	v := newVerifierWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"errors":[{"message":"boom"}],"data":null}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"name":"Rick Sanchez","status":"Alive","episode":["e1"]}`))
	})

	_, err := v.CompareCharacter(context.Background(), 1)
	var pe *ProtocolError
	require.True(t, errors.As(err, &pe))
	require.Len(t, pe.Errors, 1)
	assert.Equal(t, "boom", pe.Errors[0].Message)
}

func TestCompareAbsence(t *testing.T) {
	for _, errs := range []bool{false, true} {
		v, _ := newVerifier(t, mock.WithGraphQLNotFoundErrors(errs))
		b, err := v.CompareAbsence(context.Background(), 999999)
		require.NoError(t, err)
		assert.True(t, b.Passed())
	}
}

func TestCompareAbsence_FailsWhenPresent(t *testing.T) {
	v, _ := newVerifier(t)
	b, err := v.CompareAbsence(context.Background(), 1)
	require.Error(t, err)
	assert.Len(t, b.Failures(), 2)
}

func TestCompareFields(t *testing.T) {
	b := assertions.NewBatch("x")
	CompareFields(b,
		CommonFields{Name: "Rick Sanchez", Status: "Alive", EpisodeCount: 51},
		CommonFields{Name: "Rick Sanchez", Status: "Alive", EpisodeCount: 50},
	)
	require.Len(t, b.Failures(), 1)
	assert.Equal(t, "episodeCount", b.Failures()[0].Subject)
}

func TestCompareFields_ExactStrings(t *testing.T) {
	b := assertions.NewBatch("x")
	CompareFields(b,
		CommonFields{Name: "100", Status: "1.0", EpisodeCount: 1},
		CommonFields{Name: "1e2", Status: "1", EpisodeCount: 1},
	)

	failed := make([]string, 0, 2)
	for _, r := range b.Failures() {
		failed = append(failed, r.Subject)
	}
	assert.Equal(t, []string{"name", "status"}, failed)
}

func TestClassifyREST(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Outcome
		wantErr bool
	}{
		{name: "found", status: 200, body: `{"id":1}`, want: Found{Protocol: REST}},
		{name: "not found", status: 404, body: `{"error":"Character not found"}`, want: NotFoundREST{Status: 404, Message: "Character not found"}},
		{name: "server error", status: 500, body: `oops`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &chttp.Response{
				StatusCode: tt.status,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       []byte(tt.body),
			}
			got, err := ClassifyREST(resp)
			if tt.wantErr {
				var se *catalog.StatusError
				require.True(t, errors.As(err, &se))
				return
			}
			require.NoError(t, err)
			switch want := tt.want.(type) {
			case Found:
				f, ok := got.(Found)
				require.True(t, ok)
				assert.Equal(t, want.Protocol, f.Protocol)
			default:
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClassifyGraphQL(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "found", body: `{"data":{"character":{"id":"1"}}}`, want: "GraphQL found"},
		{name: "null data", body: `{"data":{"character":null}}`, want: "GraphQL null data.character"},
		{name: "absent data", body: `{"data":null}`, want: "GraphQL null data.character"},
		{name: "errors", body: `{"errors":[{"message":"nope"}],"data":{"character":null}}`, want: `GraphQL errors [{"message":"nope"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &chttp.Response{
				StatusCode: 200,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       []byte(tt.body),
			}
			got, err := ClassifyGraphQL(resp, "data.character")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCheckNotFound(t *testing.T) {
	tests := []struct {
		name   string
		o      Outcome
		passed bool
	}{
		{"found", Found{Protocol: REST}, false},
		{"rest 404", NotFoundREST{Status: 404, Message: "Character not found"}, true},
		{"rest 404 without message", NotFoundREST{Status: 404}, false},
		{"graphql errors", GraphQLErrors{Errors: []catalog.GraphQLError{{Message: "x"}}}, true},
		{"graphql empty errors", GraphQLErrors{Raw: "[]"}, false},
		{"graphql error without message", GraphQLErrors{Errors: []catalog.GraphQLError{{}}}, false},
		{"graphql absent", GraphQLNullData{Path: "data.character"}, true},
		{"graphql null", GraphQLNullData{Path: "data.character", Value: extract.Parse("null")}, true},
		{"graphql null with a character", GraphQLNullData{Path: "data.character", Value: extract.Parse(`{"id":"1"}`)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := assertions.NewBatch("n")
			CheckNotFound(b, tt.o)
			assert.Equal(t, tt.passed, b.Passed())
		})
	}
}

func TestVerifyMissing(t *testing.T) {
	v, sink := newVerifier(t)

	res, err := v.VerifyMissingREST(context.Background(), 999999)
	require.NoError(t, err)
	assert.Equal(t, NotFoundREST{Status: 404, Message: "Character not found"}, res.Outcome)

	res, err = v.VerifyMissingGraphQL(context.Background(), 999999)
	require.NoError(t, err)
	require.IsType(t, GraphQLNullData{}, res.Outcome)
	assert.True(t, res.Outcome.(GraphQLNullData).Value.IsNull())

	_, ok := sink.Find("REST response for id=999999")
	assert.True(t, ok)

	v, _ = newVerifier(t, mock.WithGraphQLNotFoundErrors(true))
	res, err = v.VerifyMissingGraphQL(context.Background(), 999999)
	require.NoError(t, err)
	assert.IsType(t, GraphQLErrors{}, res.Outcome)
}

func TestVerifyMissing_FailsForExistingCharacter(t *testing.T) {
	v, _ := newVerifier(t)

	res, err := v.VerifyMissingREST(context.Background(), 1)
	require.Error(t, err)
	assert.IsType(t, Found{}, res.Outcome)
}

func TestVerifyFilteredPage(t *testing.T) {
	v, sink := newVerifier(t)
	f := catalog.Filter{Status: "alive", Page: 2}

	pr, err := v.VerifyFilteredPageREST(context.Background(), f)
	require.NoError(t, err)
	assert.Len(t, pr.Results, mock.PageSize)
	assert.True(t, pr.Info.HasNext)
	assert.Equal(t, 4, pr.Info.Pages)

	req, ok := sink.Find("Request")
	require.True(t, ok)
	assert.Contains(t, req.Payload, "status=alive")
	_, ok = sink.Find("Response JSON")
	assert.True(t, ok)

	pr, err = v.VerifyFilteredPageGraphQL(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "3", pr.Info.Next)
}

func TestVerifyFilteredPage_LastPage(t *testing.T) {
	v, _ := newVerifier(t)

	pr, err := v.VerifyFilteredPageREST(context.Background(), catalog.Filter{Status: "dead", Page: 1})
	require.NoError(t, err)
	assert.False(t, pr.Info.HasNext)
	assert.Len(t, pr.Results, 19)
}

func TestValidatePage_StatusMismatch(t *testing.T) {
	info := extract.Parse(`{"count":2,"pages":2,"next":"x","prev":null}`)
	results := extract.Parse(`[{"status":"Alive"},{"status":"Dead"}]`).Array()

	b := assertions.NewBatch("p")
	ValidatePage(b, catalog.Filter{Status: "ALIVE", Page: 1}, info, results)

	failures := b.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "results.status", failures[0].Subject)
	assert.Contains(t, failures[0].Message, "item[1]")
}

func TestValidatePage_MissingEnvelope(t *testing.T) {
	b := assertions.NewBatch("p")
	ValidatePage(b, catalog.Filter{Status: "alive", Page: 2}, extract.Absent(), nil)

	subjects := map[string]bool{}
	for _, f := range b.Failures() {
		subjects[f.Subject] = true
	}
	assert.True(t, subjects["results"])
	assert.True(t, subjects["info"])
	assert.True(t, subjects["info.prev"])
}

func TestVerifyPageBeyondLast(t *testing.T) {
	v, _ := newVerifier(t)

	b, err := v.VerifyPageBeyondLast(context.Background(), catalog.Filter{Status: "alive"})
	require.NoError(t, err)
	assert.True(t, b.Passed())
	assert.Equal(t, "status=alive page=5", b.Name())
}

func TestVerifyCharacterSchema(t *testing.T) {
	v, sink := newVerifier(t)

	ch, b, err := v.VerifyCharacterSchema(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, b.Passed())
	assert.Equal(t, "Rick Sanchez", ch.Name)

	mapped, ok := sink.Find("Mapped character id=1")
	require.True(t, ok)
	assert.Contains(t, mapped.Payload, "Rick Sanchez")
}

func TestVerifyCharacterSchema_Incomplete(t *testing.T) {
	v := newVerifierWithHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"name":"","status":"Zombie","episode":[]}`))
	})

	_, b, err := v.VerifyCharacterSchema(context.Background(), 7)
	require.Error(t, err)

	subjects := map[string]bool{}
	for _, f := range b.Failures() {
		subjects[f.Subject] = true
	}
	assert.True(t, subjects["name"])
	assert.True(t, subjects["episode"])
	assert.True(t, subjects["body"])
	assert.False(t, subjects["id"])
}

func TestVerifyCharacterLookups(t *testing.T) {
	v, sink := newVerifier(t)

	b, err := v.VerifyCharacterREST(context.Background(), 1, "Rick Sanchez")
	require.NoError(t, err)
	assert.True(t, b.Passed())
	_, ok := sink.Find("Request")
	assert.True(t, ok)

	b, err = v.VerifyCharacterGraphQL(context.Background(), 2, "Morty Smith")
	require.NoError(t, err)
	assert.True(t, b.Passed())

	_, err = v.VerifyCharacterREST(context.Background(), 1, "Morty Smith")
	require.Error(t, err)
}

func TestVerifyStableLookup(t *testing.T) {
	v, _ := newVerifier(t)

	b, err := v.VerifyStableLookup(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Len(t, b.Results(), 2)
	assert.True(t, b.Passed())
}
