package verify

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/abdul-hamid-achik/charspec/packages/assertions"
	"github.com/abdul-hamid-achik/charspec/packages/catalog"
	"github.com/abdul-hamid-achik/charspec/packages/report"
)

//go:embed schema/character.json
var characterSchema []byte

// CharacterSchema returns the JSON Schema a REST character body must satisfy.
func CharacterSchema() []byte {
	return characterSchema
}

// CheckCharacterComplete records that every attribute of ch is populated.
// Type is allowed to be empty; the API leaves it blank for most characters.
func CheckCharacterComplete(b *assertions.Batch, ch *catalog.Character) {
	b.GreaterThan("id", ch.ID, 0)
	b.NonEmpty("name", ch.Name)
	b.NonEmpty("status", ch.Status)
	b.NonEmpty("species", ch.Species)
	b.NonEmpty("gender", ch.Gender)
	b.NonEmpty("origin.name", ch.Origin.Name)
	b.NonEmpty("location.name", ch.Location.Name)
	b.NonEmpty("image", ch.Image)
	b.NonEmpty("episode", ch.Episode)
	b.NonEmpty("url", ch.URL)
	b.NonEmpty("created", ch.Created)
}

// VerifyCharacterSchema maps the REST body for id onto catalog.Character,
// checks every attribute is populated and validates the raw body against
// CharacterSchema.
func (v *Verifier) VerifyCharacterSchema(ctx context.Context, id int) (*catalog.Character, *assertions.Batch, error) {
	resp, err := v.fetchREST(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := catalog.ExpectStatus(resp, http.StatusOK); err != nil {
		return nil, nil, err
	}

	ch, err := catalog.DecodeCharacter(resp)
	if err != nil {
		return nil, nil, err
	}
	v.sink.Attach(report.Text(fmt.Sprintf("Mapped character id=%d", id), ch.String()))

	b := assertions.NewBatch(fmt.Sprintf("schema id=%d", id))
	CheckCharacterComplete(b, ch)
	b.Schema("body", characterSchema, resp.Body)
	return ch, b, b.Err()
}
