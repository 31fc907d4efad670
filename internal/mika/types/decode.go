package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DecodeChatRequest decodes a chat payload leniently and validates it.
//
// Malformed entries inside messages, catalog or profile degrade to zero values
// instead of failing the request; only a body that is not a JSON object, a missing
// message/messages pair or a non-list catalog is rejected. A truthy messages value
// that is not a list counts as present with no turns.
func DecodeChatRequest(data []byte) (ChatRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ChatRequest{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if raw == nil {
		return ChatRequest{}, ErrInvalidRequest
	}

	var req ChatRequest
	if m, ok := raw["message"]; ok {
		var s string
		if json.Unmarshal(m, &s) == nil {
			req.Utterance = s
		}
	}
	if m, ok := raw["messages"]; ok {
		switch {
		case isJSONArray(m):
			var turns []Turn
			if err := json.Unmarshal(m, &turns); err != nil {
				return ChatRequest{}, fmt.Errorf("%w: messages: %v", ErrInvalidRequest, err)
			}
			if turns == nil {
				turns = []Turn{}
			}
			req.Conversation = turns
		case isTruthy(m):
			// present but carries no turns
			req.Conversation = []Turn{}
		}
	}
	if p, ok := raw["profile"]; ok {
		_ = json.Unmarshal(p, &req.Profile)
	}
	if c, ok := raw["catalog"]; ok && isJSONArray(c) {
		var products []Product
		if err := json.Unmarshal(c, &products); err != nil {
			return ChatRequest{}, fmt.Errorf("%w: catalog: %v", ErrInvalidRequest, err)
		}
		if products == nil {
			products = []Product{}
		}
		req.Catalog = products
	}

	if err := req.Validate(); err != nil {
		return ChatRequest{}, err
	}
	return req, nil
}

// UnmarshalJSON accepts any JSON value; non-objects and non-string fields decode to
// empty values.
func (t *Turn) UnmarshalJSON(data []byte) error {
	*t = Turn{}
	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) != nil {
		return nil
	}
	t.Role = stringField(fields["role"])
	t.Content = stringField(fields["content"])
	return nil
}

// UnmarshalJSON accepts string or numeric ids and numeric-string prices. Anything
// that is not an object decodes to the zero product.
func (p *Product) UnmarshalJSON(data []byte) error {
	*p = Product{}
	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) != nil {
		return nil
	}
	if id, ok := fields["id"]; ok {
		var n json.Number
		if s := stringField(id); s != "" {
			p.ID = s
		} else if json.Unmarshal(id, &n) == nil {
			p.ID = n.String()
		}
	}
	p.Title = stringField(fields["title"])
	p.Price = priceField(fields["price"])
	return nil
}

// UnmarshalJSON keeps the known profile keys whose values are non-blank scalars.
func (a *ProfileAttributes) UnmarshalJSON(data []byte) error {
	*a = ProfileAttributes{}
	var fields map[string]json.RawMessage
	if json.Unmarshal(data, &fields) != nil {
		return nil
	}
	a.Gender = scalarField(fields["gender"])
	a.Occasion = scalarField(fields["occasion"])
	a.ColorPref = scalarField(fields["colorPref"])
	a.Budget = scalarField(fields["budget"])
	a.BodyType = scalarField(fields["bodyType"])
	a.Undertone = scalarField(fields["undertone"])
	a.SkinTone = scalarField(fields["skinTone"])
	a.Size = scalarField(fields["size"])
	a.ShoeSize = scalarField(fields["shoeSize"])
	return nil
}

func isJSONArray(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// isTruthy reports whether a JSON value is an object, a non-empty string, a
// non-zero number or true.
func isTruthy(data json.RawMessage) bool {
	var v any
	if json.Unmarshal(data, &v) != nil {
		return false
	}
	switch val := v.(type) {
	case map[string]any, []any:
		return true
	case string:
		return val != ""
	case float64:
		return val != 0
	case bool:
		return val
	}
	return false
}

func stringField(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(data, &s) != nil {
		return ""
	}
	return s
}

// priceField accepts numbers and numeric strings; the rest is zero.
func priceField(data json.RawMessage) float64 {
	if len(data) == 0 {
		return 0
	}
	var f float64
	if json.Unmarshal(data, &f) == nil {
		return f
	}
	if s := strings.TrimSpace(stringField(data)); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return 0
}

// scalarField stringifies truthy scalars. Zero numbers and false are treated as
// absent, like blank strings.
func scalarField(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	var v any
	if json.Unmarshal(data, &v) != nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == 0 {
			return ""
		}
		return strings.TrimSpace(string(bytes.TrimSpace(data)))
	case bool:
		if val {
			return "true"
		}
	}
	return ""
}
