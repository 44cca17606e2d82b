package mock

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/extract"
	chttp "github.com/abdul-hamid-achik/charspec/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts ...Option) *catalog.Client {
	t.Helper()
	srv := httptest.NewServer(NewServer(opts...).Handler())
	t.Cleanup(srv.Close)
	return catalog.NewClient(srv.URL, nil)
}

func TestServer_CharacterByID(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Character(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, resp.IsJSON())

	ch, err := catalog.DecodeCharacter(resp)
	require.NoError(t, err)
	assert.Equal(t, "Rick Sanchez", ch.Name)
	assert.Equal(t, catalog.StatusAlive, ch.Status)
	assert.Len(t, ch.Episode, 51)
}

func TestServer_CharacterNotFound(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Character(context.Background(), 999999)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "Character not found", extract.Extract(resp, "error").String())
}

func TestServer_ListFiltered(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Characters(context.Background(), catalog.Filter{Status: "alive", Page: 2})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	info := catalog.PageInfoFrom(extract.Extract(resp, "info"))
	assert.Equal(t, 62, info.Count)
	assert.Equal(t, 4, info.Pages)
	assert.True(t, info.HasNext)
	assert.True(t, strings.HasSuffix(info.Next, "?page=3&status=alive"), info.Next)
	assert.True(t, info.HasPrev)

	results := extract.Extract(resp, "results").Array()
	assert.Len(t, results, PageSize)
	for _, r := range results {
		assert.Equal(t, catalog.StatusAlive, r.Get("status").String())
	}
}

func TestServer_ListLastPageHasNoNext(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Characters(context.Background(), catalog.Filter{Status: "alive", Page: 4})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	info := catalog.PageInfoFrom(extract.Extract(resp, "info"))
	assert.False(t, info.HasNext)
	assert.True(t, extract.Extract(resp, "info.next").IsNull())
	assert.Equal(t, 2, extract.Extract(resp, "results").Len())
}

func TestServer_ListBeyondLastPage(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.Characters(context.Background(), catalog.Filter{Status: "alive", Page: 5})
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "There is nothing here", extract.Extract(resp, "error").String())
}

func TestServer_GraphQLCharacter(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.CharacterGraphQL(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	assert.False(t, extract.Extract(resp, "errors").Present())
	assert.Equal(t, "Rick Sanchez", extract.Extract(resp, "data.character.name").String())
	assert.Equal(t, "1", extract.Extract(resp, "data.character.id").String())
	assert.Equal(t, 51, extract.Extract(resp, "data.character.episode").Len())
	assert.Equal(t, "51", extract.Extract(resp, "data.character.episode[50].id").String())
}

func TestServer_GraphQLCharacterMissing(t *testing.T) {
	t.Run("null data", func(t *testing.T) {
		client := newTestClient(t)
		resp, err := client.CharacterGraphQL(context.Background(), 999999)
		require.NoError(t, err)
		assert.False(t, extract.Extract(resp, "errors").Present())
		assert.True(t, extract.Extract(resp, "data.character").IsNull())
	})

	t.Run("errors", func(t *testing.T) {
		client := newTestClient(t, WithGraphQLNotFoundErrors(true))
		resp, err := client.CharacterGraphQL(context.Background(), 999999)
		require.NoError(t, err)
		errs, err := catalog.GraphQLErrors(resp)
		require.NoError(t, err)
		require.Len(t, errs, 1)
		assert.Equal(t, "Character not found", errs[0].Message)
	})
}

func TestServer_GraphQLCharacters(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.CharactersGraphQL(context.Background(), catalog.Filter{Status: "alive", Page: 2})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	info := catalog.PageInfoFrom(extract.Extract(resp, "data.characters.info"))
	assert.True(t, info.HasNext)
	assert.Equal(t, "3", info.Next)
	assert.Equal(t, PageSize, extract.Extract(resp, "data.characters.results").Len())

	resp, err = client.CharactersGraphQL(context.Background(), catalog.Filter{Status: "alive", Page: 9})
	require.NoError(t, err)
	assert.Equal(t, 0, extract.Extract(resp, "data.characters.results").Len())
	assert.True(t, extract.Extract(resp, "data.characters.info.next").IsNull())
}

func TestServer_GraphQLRewrite(t *testing.T) {
	client := newTestClient(t, WithGraphQLRewrite(func(c *catalog.Character) {
		c.Status = strings.ToUpper(c.Status)
		c.Episode = c.Episode[:1]
	}))

	resp, err := client.CharacterGraphQL(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "ALIVE", extract.Extract(resp, "data.character.status").String())
	assert.Equal(t, 1, extract.Extract(resp, "data.character.episode").Len())

	// REST is untouched
	rest, err := client.Character(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 51, extract.Extract(rest, "episode").Len())
}

func TestServer_GraphQLUnknownField(t *testing.T) {
	client := newTestClient(t)
	resp, err := client.Query(context.Background(), chttp.GraphQLRequest{Query: "{ episodes { info { count } } }"})
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, 1, extract.Extract(resp, "errors").Len())
}

func TestRouter_Match(t *testing.T) {
	r := NewRouter()
	r.Handle("GET", "/api/character/{id}", "get", nil)

	route, params := r.Match("GET", "/api/character/42/")
	require.NotNil(t, route)
	assert.Equal(t, "42", params["id"])

	route, _ = r.Match("POST", "/api/character/42")
	assert.Nil(t, route)
}

func TestStore_List(t *testing.T) {
	s := NewStore(DefaultCharacters(catalog.DefaultBaseURL))

	all := s.List("", 1)
	assert.Equal(t, 100, all.Count)
	assert.Equal(t, 5, all.Pages)

	dead := s.List("DEAD", 1)
	assert.Equal(t, 19, dead.Count)
	for _, c := range dead.Results {
		assert.Equal(t, catalog.StatusDead, c.Status)
	}
}

func writeCharacters(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "characters.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadStore_ServesFileCharacters(t *testing.T) {
	path := writeCharacters(t, `[{"id":7,"name":"Abradolf Lincler","status":"unknown","species":"Human","gender":"Male"}]`)

	store, err := LoadStore(path)
	require.NoError(t, err)
	client := newTestClient(t, WithStore(store))

	resp, err := client.Character(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	ch, err := catalog.DecodeCharacter(resp)
	require.NoError(t, err)
	assert.Equal(t, "Abradolf Lincler", ch.Name)

	resp, err = client.Character(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestLoadStore(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantLen int
		wantErr string
	}{
		{name: "array", body: `[{"id":1,"name":"Rick"},{"id":2,"name":"Morty"}]`, wantLen: 2},
		{name: "listing page", body: `{"info":{"count":1},"results":[{"id":3,"name":"Summer"}]}`, wantLen: 1},
		{name: "empty array", body: `[]`, wantErr: "no characters"},
		{name: "zero id", body: `[{"id":0,"name":"Nobody"}]`, wantErr: "invalid id"},
		{name: "duplicate id", body: `[{"id":1},{"id":1}]`, wantErr: "duplicate id 1"},
		{name: "malformed", body: `[{"id":`, wantErr: "parsing characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := LoadStore(writeCharacters(t, tt.body))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLen, store.List("", 1).Count)
		})
	}
}

func TestLoadStore_MissingFile(t *testing.T) {
	_, err := LoadStore(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading characters")
}
