// Package catalog is a thin client for the character catalog API.
//
// It knows the REST and GraphQL endpoints, the request shapes, and the
// entity types. It does not judge responses beyond checking status codes;
// that is the job of package verify.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/abdul-hamid-achik/charspec/packages/extract"
	"github.com/abdul-hamid-achik/charspec/packages/http"
)

const (
	// DefaultBaseURL is the public production endpoint
	DefaultBaseURL = "https://rickandmortyapi.com"

	CharacterPath     = "/api/character"
	CharacterByIDPath = "/api/character/{id}"
	GraphQLPath       = "/graphql"
)

// CharacterByIDQuery requests the field set shared with the REST representation.
const CharacterByIDQuery = `query($id:ID!){
  character(id:$id){ id name status episode{ id } }
}`

// CharactersQuery requests one filtered page.
const CharactersQuery = `query($page:Int,$status:String){
  characters(page:$page, filter:{status:$status}) {
    info { count pages next prev }
    results { id name status }
  }
}`

// Status values as the API spells them.
const (
	StatusAlive   = "Alive"
	StatusDead    = "Dead"
	StatusUnknown = "unknown"
)

type LocationRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Character struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Status   string      `json:"status"`
	Species  string      `json:"species"`
	Type     string      `json:"type"`
	Gender   string      `json:"gender"`
	Origin   LocationRef `json:"origin"`
	Location LocationRef `json:"location"`
	Image    string      `json:"image"`
	Episode  []string    `json:"episode"`
	URL      string      `json:"url"`
	Created  string      `json:"created"`
}

func (c Character) String() string {
	return fmt.Sprintf("Character{ID:%d Name:%q Status:%q Species:%q Gender:%q Origin:%q Location:%q Episodes:%d}",
		c.ID, c.Name, c.Status, c.Species, c.Gender, c.Origin.Name, c.Location.Name, len(c.Episode))
}

// PageInfo is the pagination envelope. REST reports next/prev as URLs and
// GraphQL as page numbers; both are kept in their string form.
type PageInfo struct {
	Count   int
	Pages   int
	Next    string
	Prev    string
	HasNext bool
	HasPrev bool
}

// PageInfoFrom reads an info object from either protocol.
func PageInfoFrom(v extract.Value) PageInfo {
	next, prev := v.Get("next"), v.Get("prev")
	return PageInfo{
		Count:   int(v.Get("count").Int()),
		Pages:   int(v.Get("pages").Int()),
		Next:    next.String(),
		Prev:    prev.String(),
		HasNext: !next.Missing(),
		HasPrev: !prev.Missing(),
	}
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Filter narrows a character listing. Zero values are omitted from the request.
type Filter struct {
	Status string
	Page   int
}

// Client issues catalog requests against one base URI.
type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.NewClient()
	}
	return &Client{http: client, baseURL: baseURL}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Character fetches GET /api/character/{id}. Any status is returned as a response.
func (c *Client) Character(ctx context.Context, id int) (*http.Response, error) {
	req := http.NewRequest("GET", http.JoinURL(c.baseURL, CharacterByIDPath)).
		SetPathParam("id", strconv.Itoa(id)).
		SetHeader("Accept", "application/json")
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching character %d: %w", id, err)
	}
	return resp, nil
}

// Characters fetches GET /api/character with optional status and page.
func (c *Client) Characters(ctx context.Context, f Filter) (*http.Response, error) {
	req := http.NewRequest("GET", http.JoinURL(c.baseURL, CharacterPath)).
		SetHeader("Accept", "application/json")
	if f.Status != "" {
		req.SetQueryParam("status", f.Status)
	}
	if f.Page > 0 {
		req.SetQueryParam("page", strconv.Itoa(f.Page))
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	return resp, nil
}

// Query posts an arbitrary GraphQL query.
func (c *Client) Query(ctx context.Context, q http.GraphQLRequest) (*http.Response, error) {
	resp, err := c.http.GraphQL(ctx, http.JoinURL(c.baseURL, GraphQLPath), q)
	if err != nil {
		return nil, fmt.Errorf("graphql query: %w", err)
	}
	return resp, nil
}

// CharacterGraphQL runs CharacterByIDQuery.
func (c *Client) CharacterGraphQL(ctx context.Context, id int) (*http.Response, error) {
	return c.Query(ctx, http.GraphQLRequest{
		Query:     CharacterByIDQuery,
		Variables: map[string]any{"id": id},
	})
}

// CharactersGraphQL runs CharactersQuery.
func (c *Client) CharactersGraphQL(ctx context.Context, f Filter) (*http.Response, error) {
	vars := map[string]any{"page": nil, "status": nil}
	if f.Page > 0 {
		vars["page"] = f.Page
	}
	if f.Status != "" {
		vars["status"] = f.Status
	}
	return c.Query(ctx, http.GraphQLRequest{Query: CharactersQuery, Variables: vars})
}

// DecodeCharacter maps a REST character body onto Character.
func DecodeCharacter(resp *http.Response) (*Character, error) {
	var ch Character
	if err := json.Unmarshal(resp.Body, &ch); err != nil {
		return nil, fmt.Errorf("decoding character: %w", err)
	}
	return &ch, nil
}

// GraphQLErrors returns the decoded "errors" array, or nil when absent.
func GraphQLErrors(resp *http.Response) ([]GraphQLError, error) {
	v := extract.Extract(resp, "errors")
	if v.Missing() {
		return nil, nil
	}
	var errs []GraphQLError
	if err := json.Unmarshal([]byte(v.Raw()), &errs); err != nil {
		return nil, fmt.Errorf("decoding graphql errors: %w", err)
	}
	return errs, nil
}
