package upstream

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const envelopeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["success"],
	"properties": {
		"success": {"type": "boolean"},
		"message": {"type": "string"}
	}
}`

var loadEnvelopeSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
})

// checkEnvelope inspects a decoded response body. Bodies that are not
// objects or carry no "success" key are collaborator data and pass. An
// envelope must match envelopeSchema; success:false is an EnvelopeError
// wrapping ErrCollaborator.
func checkEnvelope(endpoint string, status int, body any) error {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	if _, ok := obj["success"]; !ok {
		return nil
	}

	schema, err := loadEnvelopeSchema()
	if err != nil {
		return fmt.Errorf("upstream: compile envelope schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(obj))
	if err != nil {
		return &EnvelopeError{Endpoint: endpoint, Status: status, Message: err.Error(), Err: ErrEnvelope}
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return &EnvelopeError{Endpoint: endpoint, Status: status, Message: strings.Join(problems, "; "), Err: ErrEnvelope}
	}

	if success, _ := obj["success"].(bool); !success {
		msg, _ := obj["message"].(string)
		return &EnvelopeError{Endpoint: endpoint, Status: status, Message: msg, Err: ErrCollaborator}
	}
	return nil
}
