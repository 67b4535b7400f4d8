package block

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/starnotary/notary/jsonx"
)

// Star is the celestial object registered by a wallet.
type Star struct {
	Dec           string `json:"dec"`
	RA            string `json:"ra"`
	Magnitude     string `json:"magnitude,omitempty"`
	Constellation string `json:"constellation,omitempty"`
	Story         string `json:"story"`
	StoryDecoded  string `json:"storyDecoded,omitempty"`
}

// StarBody is the block body for star registrations.
type StarBody struct {
	Address string `json:"address"`
	Star    Star   `json:"star"`
}

// EncodeStory hex encodes the free-text story for storage.
func EncodeStory(story string) string {
	return hex.EncodeToString([]byte(story))
}

// DecodeStory reverses EncodeStory.
func DecodeStory(encoded string) (string, error) {
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode story: %w", err)
	}
	return string(raw), nil
}

// NewStarBody builds the stored body for a registration, hex encoding the story.
func NewStarBody(address string, star Star) (json.RawMessage, error) {
	star.Story = EncodeStory(star.Story)
	star.StoryDecoded = ""
	return jsonx.MarshalCanonical(StarBody{Address: address, Star: star})
}

// StarBody decodes the body as a star registration. ok is false for bodies
// that are not star registrations, such as the genesis marker.
func (b *Block) StarBody() (body StarBody, ok bool) {
	if err := jsonx.Unmarshal(b.Body, &body); err != nil {
		return StarBody{}, false
	}
	return body, body.Address != ""
}

// Address returns the registering wallet address, or "" when the body has none.
func (b *Block) Address() string {
	var probe struct {
		Address string `json:"address"`
	}
	if err := jsonx.Unmarshal(b.Body, &probe); err != nil {
		return ""
	}
	return probe.Address
}

// View is the display form of a block: the star story is decoded next to the
// stored hex.
type View struct {
	Hash              string          `json:"hash"`
	Height            uint64          `json:"height"`
	Body              json.RawMessage `json:"body"`
	Time              string          `json:"time"`
	PreviousBlockHash string          `json:"previousBlockHash"`
}

// DecodedView returns the block with body.star.storyDecoded filled in when the
// body is a star registration. Other bodies are passed through.
func (b *Block) DecodedView() View {
	v := View{
		Hash:              b.Hash,
		Height:            b.Height,
		Body:              b.Body,
		Time:              fmt.Sprintf("%d", b.Time),
		PreviousBlockHash: b.PreviousBlockHash,
	}

	body, ok := b.StarBody()
	if !ok || body.Star.Story == "" {
		return v
	}
	decoded, err := DecodeStory(body.Star.Story)
	if err != nil {
		return v
	}
	body.Star.StoryDecoded = decoded
	if raw, err := jsonx.MarshalCanonical(body); err == nil {
		v.Body = raw
	}
	return v
}
