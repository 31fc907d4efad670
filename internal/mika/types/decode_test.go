package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeChatRequest_Valid(t *testing.T) {
	body := `{
		"message": "office look please",
		"profile": {"occasion": "office", "budget": 3000, "gender": "  ", "undertone": false},
		"catalog": [
			{"id": "p1", "title": "Tote", "price": 1200},
			{"id": 42, "title": "Scarf", "price": "350.5"},
			{"id": "p3", "title": "Belt"},
			"garbage"
		]
	}`

	req, err := DecodeChatRequest([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Utterance != "office look please" {
		t.Fatalf("expected utterance, got %q", req.Utterance)
	}
	if req.Conversation != nil {
		t.Fatalf("expected nil conversation, got %v", req.Conversation)
	}
	if len(req.Catalog) != 4 {
		t.Fatalf("expected 4 catalog entries, got %d", len(req.Catalog))
	}
	if req.Catalog[1].ID != "42" || req.Catalog[1].Price != 350.5 {
		t.Errorf("unexpected lenient product: %+v", req.Catalog[1])
	}
	if req.Catalog[2].Price != 0 {
		t.Errorf("missing price should be zero, got %v", req.Catalog[2].Price)
	}
	if req.Catalog[3] != (Product{}) {
		t.Errorf("non-object entry should be zero product, got %+v", req.Catalog[3])
	}
	if req.Profile.Occasion != "office" || req.Profile.Budget != "3000" {
		t.Errorf("unexpected profile: %+v", req.Profile)
	}
	if req.Profile.Gender != "" || req.Profile.Undertone != "" {
		t.Errorf("blank and false values must be absent: %+v", req.Profile)
	}
}

func TestDecodeChatRequest_Conversation(t *testing.T) {
	body := `{"messages": [{"role": "user", "content": "hi"}, null, {"role": 3, "content": {"x": 1}}], "catalog": []}`

	req, err := DecodeChatRequest([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.Conversation) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(req.Conversation))
	}
	if req.Conversation[0] != (Turn{Role: "user", Content: "hi"}) {
		t.Errorf("unexpected first turn: %+v", req.Conversation[0])
	}
	if req.Conversation[2] != (Turn{}) {
		t.Errorf("non-string fields should decode empty: %+v", req.Conversation[2])
	}
	if req.Catalog == nil || len(req.Catalog) != 0 {
		t.Errorf("expected empty non-nil catalog, got %#v", req.Catalog)
	}
}

func TestDecodeChatRequest_NonListMessages(t *testing.T) {
	for _, body := range []string{
		`{"messages": "hello", "catalog": []}`,
		`{"messages": {"role": "user"}, "catalog": []}`,
		`{"messages": 1, "catalog": []}`,
		`{"messages": true, "catalog": []}`,
	} {
		req, err := DecodeChatRequest([]byte(body))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", body, err)
		}
		if req.Conversation == nil || len(req.Conversation) != 0 {
			t.Errorf("%s: expected an empty conversation, got %#v", body, req.Conversation)
		}
	}
}

func TestDecodeChatRequest_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"neither message nor messages", `{"catalog": []}`},
		{"empty message", `{"message": "", "catalog": []}`},
		{"messages empty string", `{"messages": "", "catalog": []}`},
		{"messages null", `{"messages": null, "catalog": []}`},
		{"messages false", `{"messages": false, "catalog": []}`},
		{"missing catalog", `{"message": "hi"}`},
		{"catalog not a list", `{"message": "hi", "catalog": {"id": "p1"}}`},
		{"body not an object", `[1, 2]`},
		{"body not json", `hello`},
		{"null body", `null`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeChatRequest([]byte(tc.body))
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := (ChatRequest{Utterance: "hi", Catalog: []Product{}}).Validate(); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
	if err := (ChatRequest{Conversation: []Turn{}, Catalog: []Product{}}).Validate(); err != nil {
		t.Errorf("empty conversation list still counts as present, got %v", err)
	}
	if err := (ChatRequest{Utterance: "hi"}).Validate(); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("nil catalog must be rejected, got %v", err)
	}
}

func TestResponseSchema(t *testing.T) {
	data, err := json.Marshal(ResponseSchema())
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}

	var schema struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	for _, key := range []string{"message", "looks", "picks", "beauty", "advice"} {
		if _, ok := schema.Properties[key]; !ok {
			t.Errorf("schema is missing property %q", key)
		}
	}
}
