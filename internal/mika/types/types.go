package types

import (
	"errors"
)

// ErrInvalidRequest is returned when a chat request carries neither a message nor a
// conversation, or when its catalog is missing or not a list.
var ErrInvalidRequest = errors.New("message or messages[] AND catalog[] are required")

// ChatRequest represents one stylist request as received from the client.
//
// A nil Conversation means "messages" was absent; an empty non-nil one means it was
// sent as an empty list. The same holds for Catalog.
type ChatRequest struct {
	Utterance    string            `json:"message,omitempty"`
	Conversation []Turn            `json:"messages,omitempty"`
	Profile      ProfileAttributes `json:"profile"`
	Catalog      []Product         `json:"catalog"`
}

// Turn is a single entry of a conversation history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Product is a caller-supplied catalog entry.
type Product struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// ProfileAttributes is the sparse user profile. Empty fields are absent.
type ProfileAttributes struct {
	Gender    string `json:"gender,omitempty"`
	Occasion  string `json:"occasion,omitempty"`
	ColorPref string `json:"colorPref,omitempty"`
	Budget    string `json:"budget,omitempty"`
	BodyType  string `json:"bodyType,omitempty"`
	Undertone string `json:"undertone,omitempty"`
	SkinTone  string `json:"skinTone,omitempty"`
	Size      string `json:"size,omitempty"`
	ShoeSize  string `json:"shoeSize,omitempty"`
}

// StylistResponse is the contract returned to the caller.
type StylistResponse struct {
	Message string         `json:"message" jsonschema:"minLength=1,description=Short reply to the shopper"`
	Looks   []Look         `json:"looks" jsonschema:"description=Styling suggestions built from catalog items"`
	Picks   []Pick         `json:"picks" jsonschema:"description=Single recommended catalog items"`
	Beauty  map[string]any `json:"beauty" jsonschema:"description=Open beauty hints such as colors and makeup"`
	Advice  map[string]any `json:"advice" jsonschema:"description=Open styling advice such as fit and weather"`
}

// Look groups catalog item ids under a title and a rationale.
type Look struct {
	Title  string   `json:"title" jsonschema:"maxLength=80"`
	Reason string   `json:"reason" jsonschema:"maxLength=200"`
	Items  []string `json:"items" jsonschema:"minItems=1,description=Catalog product ids"`
}

// Pick recommends one catalog item.
type Pick struct {
	ProductID string `json:"productId" jsonschema:"description=Catalog product id"`
	Reason    string `json:"reason" jsonschema:"maxLength=160"`
}

// Validate reports ErrInvalidRequest unless the request has a message or a
// conversation and a catalog list.
func (r ChatRequest) Validate() error {
	if r.Utterance == "" && r.Conversation == nil {
		return ErrInvalidRequest
	}
	if r.Catalog == nil {
		return ErrInvalidRequest
	}
	return nil
}
