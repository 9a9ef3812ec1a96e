package httpapi

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Request bodies are validated against JSON schemas before decoding, so a
// structurally bad request is rejected with the full list of violations
// instead of whichever field the decoder happened to choke on first.

const addressPattern = `^0x[0-9a-fA-F]{40}$`
const bytes32Pattern = `^(0x)?[0-9a-fA-F]{64}$`
const uintPattern = `^[0-9]+$`

const signatureSchema = `{
	"type": "object",
	"required": ["v", "r", "s"],
	"properties": {
		"v": {"type": "integer", "minimum": 0, "maximum": 255},
		"r": {"type": "string", "pattern": "` + bytes32Pattern + `"},
		"s": {"type": "string", "pattern": "` + bytes32Pattern + `"}
	}
}`

const permitSchema = `{
	"type": "object",
	"required": ["owner", "spender", "value", "deadline", "signature"],
	"properties": {
		"owner": {"type": "string", "pattern": "` + addressPattern + `"},
		"spender": {"type": "string", "pattern": "` + addressPattern + `"},
		"value": {"type": "string", "pattern": "` + uintPattern + `"},
		"deadline": {"type": "string", "pattern": "` + uintPattern + `"},
		"signature": ` + signatureSchema + `
	}
}`

const transferAuthorizationSchema = `{
	"type": "object",
	"required": ["from", "to", "value", "validAfter", "validBefore", "nonce", "signature"],
	"properties": {
		"from": {"type": "string", "pattern": "` + addressPattern + `"},
		"to": {"type": "string", "pattern": "` + addressPattern + `"},
		"value": {"type": "string", "pattern": "` + uintPattern + `"},
		"validAfter": {"type": "string", "pattern": "` + uintPattern + `"},
		"validBefore": {"type": "string", "pattern": "` + uintPattern + `"},
		"nonce": {"type": "string", "pattern": "` + bytes32Pattern + `"},
		"signature": ` + signatureSchema + `
	}
}`

const receiveAuthorizationSchema = `{
	"type": "object",
	"required": ["caller", "from", "to", "value", "validAfter", "validBefore", "nonce", "signature"],
	"properties": {
		"caller": {"type": "string", "pattern": "` + addressPattern + `"},
		"from": {"type": "string", "pattern": "` + addressPattern + `"},
		"to": {"type": "string", "pattern": "` + addressPattern + `"},
		"value": {"type": "string", "pattern": "` + uintPattern + `"},
		"validAfter": {"type": "string", "pattern": "` + uintPattern + `"},
		"validBefore": {"type": "string", "pattern": "` + uintPattern + `"},
		"nonce": {"type": "string", "pattern": "` + bytes32Pattern + `"},
		"signature": ` + signatureSchema + `
	}
}`

const cancelAuthorizationSchema = `{
	"type": "object",
	"required": ["authorizer", "nonce", "signature"],
	"properties": {
		"authorizer": {"type": "string", "pattern": "` + addressPattern + `"},
		"nonce": {"type": "string", "pattern": "` + bytes32Pattern + `"},
		"signature": ` + signatureSchema + `
	}
}`

// validateSchema validates a raw body against a schema, returning the list
// of violations. An empty list means the body is valid.
func validateSchema(schema string, body []byte) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("request validation failed: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}
