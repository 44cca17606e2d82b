package http

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var graphQLVariablePattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// GraphQLRequest is the JSON body of a GraphQL POST
type GraphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// ReferencedVariables returns the sorted, de-duplicated $names used in the query text.
func (g GraphQLRequest) ReferencedVariables() []string {
	seen := make(map[string]struct{})
	for _, m := range graphQLVariablePattern.FindAllStringSubmatch(g.Query, -1) {
		seen[m[1]] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every variable referenced by the query has a value.
func (g GraphQLRequest) Validate() error {
	if strings.TrimSpace(g.Query) == "" {
		return fmt.Errorf("graphql query is empty")
	}
	var missing []string
	for _, name := range g.ReferencedVariables() {
		if _, ok := g.Variables[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("graphql variables not provided: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Body encodes the request as {"query": ..., "variables": {...}}
func (g GraphQLRequest) Body() (string, error) {
	vars := g.Variables
	if vars == nil {
		vars = map[string]any{}
	}
	data, err := json.Marshal(GraphQLRequest{Query: g.Query, Variables: vars})
	if err != nil {
		return "", fmt.Errorf("encoding graphql body: %w", err)
	}
	return string(data), nil
}

// GraphQL validates and POSTs a query to endpoint.
func (c *Client) GraphQL(ctx context.Context, endpoint string, q GraphQLRequest) (*Response, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	body, err := q.Body()
	if err != nil {
		return nil, err
	}
	req := NewRequest("POST", endpoint).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(body)
	return c.Do(ctx, req)
}
