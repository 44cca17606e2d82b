package mock

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/charspec/packages/catalog"
)

type graphQLBody struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func graphQLError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"errors": []map[string]any{{"message": msg}},
	})
}

// graphQL answers the two operations the suite sends. It recognizes them by
// field name rather than parsing the document.
func (s *Server) graphQL(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var body graphQLBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		graphQLError(w, http.StatusBadRequest, "POST body sent invalid JSON.")
		return
	}

	switch {
	case strings.Contains(body.Query, "characters("):
		s.graphQLCharacters(w, body.Variables)
	case strings.Contains(body.Query, "character("):
		s.graphQLCharacter(w, body.Variables)
	default:
		graphQLError(w, http.StatusBadRequest, "Cannot query field on type \"Query\".")
	}
}

func (s *Server) graphQLCharacter(w http.ResponseWriter, vars map[string]any) {
	id, ok := intVar(vars, "id")
	if !ok {
		graphQLError(w, http.StatusBadRequest, `Variable "$id" of required type "ID!" was not provided.`)
		return
	}

	c, found := s.store.Get(id)
	if !found {
		if s.graphQLErrors {
			writeJSON(w, http.StatusOK, map[string]any{
				"errors": []map[string]any{{"message": msgCharacterNotFound, "path": []string{"character"}}},
				"data":   map[string]any{"character": nil},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"character": nil}})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"character": s.renderCharacter(c)},
	})
}

func (s *Server) graphQLCharacters(w http.ResponseWriter, vars map[string]any) {
	page, ok := intVar(vars, "page")
	if !ok {
		page = 1
	}
	status, _ := vars["status"].(string)

	p := s.store.List(status, page)
	results := make([]map[string]any, 0, len(p.Results))
	for _, c := range p.Results {
		results = append(results, s.renderCharacter(c))
	}

	var next, prev any
	if len(p.Results) > 0 && p.HasNext() {
		next = page + 1
	}
	if p.HasPrev() {
		prev = page - 1
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"characters": map[string]any{
				"info": map[string]any{
					"count": p.Count,
					"pages": p.Pages,
					"next":  next,
					"prev":  prev,
				},
				"results": results,
			},
		},
	})
}

func (s *Server) renderCharacter(c catalog.Character) map[string]any {
	c.Episode = append([]string(nil), c.Episode...)
	if s.graphQLRewrite != nil {
		s.graphQLRewrite(&c)
	}

	episodes := make([]map[string]any, len(c.Episode))
	for i, ep := range c.Episode {
		episodes[i] = map[string]any{"id": ep[strings.LastIndex(ep, "/")+1:]}
	}
	return map[string]any{
		"id":       strconv.Itoa(c.ID),
		"name":     c.Name,
		"status":   c.Status,
		"species":  c.Species,
		"gender":   c.Gender,
		"origin":   map[string]any{"name": c.Origin.Name},
		"location": map[string]any{"name": c.Location.Name},
		"image":    c.Image,
		"episode":  episodes,
		"created":  c.Created,
	}
}

// intVar reads an integer variable sent either as a JSON number or a string.
func intVar(vars map[string]any, name string) (int, bool) {
	switch v := vars[name].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case nil:
		return 0, false
	default:
		n, err := strconv.Atoi(fmt.Sprint(v))
		return n, err == nil
	}
}
