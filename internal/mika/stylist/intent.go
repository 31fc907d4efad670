package stylist

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/fermoza/mika-go/internal/mika/types"
)

// ExtractIntent picks the text the model should answer.
//
// A non-blank direct utterance wins. Otherwise the most recent "user" turn is used
// when its content is non-blank, and failing that the whole conversation is
// serialized so the model still sees context. An empty result means there was
// nothing usable.
func ExtractIntent(utterance string, conversation []types.Turn) string {
	if text := strings.TrimSpace(utterance); text != "" {
		return text
	}
	if len(conversation) == 0 {
		return ""
	}

	for i := len(conversation) - 1; i >= 0; i-- {
		if strings.EqualFold(conversation[i].Role, "user") {
			if text := strings.TrimSpace(conversation[i].Content); text != "" {
				return text
			}
			break
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(conversation); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
