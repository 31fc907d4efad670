package types

import (
	"github.com/invopop/jsonschema"
)

// ResponseSchema describes the StylistResponse contract for downstream UI code.
func ResponseSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	return reflector.Reflect(&StylistResponse{})
}
