package mock

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/charspec/packages/catalog"
)

// PageSize matches the public API
const PageSize = 20

const createdAt = "2017-11-04T18:48:46.250Z"

// Store is a read-only, in-memory character catalog.
type Store struct {
	characters []catalog.Character
	byID       map[int]catalog.Character
}

// NewStore builds a store from the given characters.
func NewStore(characters []catalog.Character) *Store {
	s := &Store{
		characters: characters,
		byID:       make(map[int]catalog.Character, len(characters)),
	}
	for _, c := range characters {
		s.byID[c.ID] = c
	}
	return s
}

// LoadStore reads a dataset from a JSON file holding either an array of
// characters or a listing page with a "results" array.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading characters: %w", err)
	}

	var characters []catalog.Character
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var page struct {
			Results []catalog.Character `json:"results"`
		}
		err = json.Unmarshal(data, &page)
		characters = page.Results
	} else {
		err = json.Unmarshal(data, &characters)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing characters %s: %w", path, err)
	}

	if len(characters) == 0 {
		return nil, fmt.Errorf("%s: no characters", path)
	}
	seen := make(map[int]bool, len(characters))
	for _, c := range characters {
		if c.ID <= 0 {
			return nil, fmt.Errorf("%s: character %q has invalid id %d", path, c.Name, c.ID)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("%s: duplicate id %d", path, c.ID)
		}
		seen[c.ID] = true
	}
	return NewStore(characters), nil
}

// DefaultCharacters returns a deterministic 100-character dataset. Ids 1-4
// are the Smith/Sanchez family; the rest rotate through Alive, Alive, Alive,
// Dead and unknown so a status=alive listing spans several pages.
func DefaultCharacters(baseURL string) []catalog.Character {
	baseURL = strings.TrimSuffix(baseURL, "/")
	family := []struct {
		name     string
		gender   string
		episodes int
	}{
		{"Rick Sanchez", "Male", 51},
		{"Morty Smith", "Male", 51},
		{"Summer Smith", "Female", 42},
		{"Beth Smith", "Female", 42},
	}

	chars := make([]catalog.Character, 0, 100)
	for i, f := range family {
		chars = append(chars, newCharacter(baseURL, i+1, f.name, catalog.StatusAlive, f.gender, f.episodes))
	}
	for id := 5; id <= 100; id++ {
		var status string
		switch id % 5 {
		case 0, 1, 2:
			status = catalog.StatusAlive
		case 3:
			status = catalog.StatusDead
		default:
			status = catalog.StatusUnknown
		}
		gender := "Male"
		if id%2 == 0 {
			gender = "Female"
		}
		chars = append(chars, newCharacter(baseURL, id, fmt.Sprintf("Citizen %03d", id), status, gender, 1+id%7))
	}
	return chars
}

func newCharacter(baseURL string, id int, name, status, gender string, episodes int) catalog.Character {
	eps := make([]string, episodes)
	for i := range eps {
		eps[i] = fmt.Sprintf("%s/api/episode/%d", baseURL, i+1)
	}
	return catalog.Character{
		ID:       id,
		Name:     name,
		Status:   status,
		Species:  "Human",
		Gender:   gender,
		Origin:   catalog.LocationRef{Name: "Earth (C-137)", URL: baseURL + "/api/location/1"},
		Location: catalog.LocationRef{Name: "Citadel of Ricks", URL: baseURL + "/api/location/3"},
		Image:    fmt.Sprintf("%s/api/character/avatar/%d.jpeg", baseURL, id),
		Episode:  eps,
		URL:      fmt.Sprintf("%s/api/character/%d", baseURL, id),
		Created:  createdAt,
	}
}

// Get returns the character with the given id.
func (s *Store) Get(id int) (catalog.Character, bool) {
	c, ok := s.byID[id]
	return c, ok
}

// Page is one slice of a filtered listing
type Page struct {
	Results []catalog.Character
	Count   int
	Pages   int
	Page    int
}

func (p Page) HasNext() bool { return p.Page < p.Pages }
func (p Page) HasPrev() bool { return p.Page > 1 && p.Page <= p.Pages }

// List filters by status (any case) and returns the requested 1-based page.
// Pages beyond the last have no results.
func (s *Store) List(status string, page int) Page {
	if page < 1 {
		page = 1
	}
	var matched []catalog.Character
	for _, c := range s.characters {
		if status == "" || strings.EqualFold(c.Status, status) {
			matched = append(matched, c)
		}
	}

	pages := (len(matched) + PageSize - 1) / PageSize
	p := Page{Count: len(matched), Pages: pages, Page: page}
	start := (page - 1) * PageSize
	if start >= len(matched) {
		return p
	}
	end := min(start+PageSize, len(matched))
	p.Results = matched[start:end]
	return p
}

func pageURL(base, status string, page int) string {
	u := fmt.Sprintf("%s%s?page=%d", base, catalog.CharacterPath, page)
	if status != "" {
		u += "&status=" + status
	}
	return u
}
