package policyai

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// extractionSchema only checks the top-level shape. Field values are coerced
// leniently afterwards, so violations become notes instead of failures.
const extractionSchema = `{
  "type": "object",
  "properties": {
    "isPolicyDocument": {"type": "boolean"},
    "message": {"type": ["string", "null"]},
    "summary": {"type": ["string", "object", "null"]},
    "effectiveDate": {"type": ["string", "null"]},
    "expiryDate": {"type": ["string", "null"]},
    "department": {"type": ["string", "null"]},
    "coverage": {"type": ["array", "string", "null"]},
    "exclusions": {"type": ["array", "null"]},
    "financials": {"type": ["object", "null"]},
    "claimProcess": {"type": ["array", "null"]},
    "eligibility": {"type": ["array", "null"]},
    "tags": {"type": ["array", "null"], "items": {"type": "string"}},
    "recentActivity": {"type": ["array", "null"]},
    "mlInsights": {
      "type": ["object", "null"],
      "properties": {
        "riskAssessment": {"type": ["string", "null"]},
        "coverageScore": {"type": ["number", "string", "null"]},
        "costEfficiency": {"type": ["string", "null"]},
        "optimizationTips": {"type": ["array", "null"]},
        "marketComparison": {"type": ["string", "null"]}
      }
    },
    "missingFields": {"type": ["array", "null"]},
    "extractionQuality": {"type": ["object", "null"]}
  },
  "required": ["isPolicyDocument"]
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction.json", strings.NewReader(extractionSchema)); err != nil {
		return nil, fmt.Errorf("add extraction schema: %w", err)
	}
	schema, err := compiler.Compile("extraction.json")
	if err != nil {
		return nil, fmt.Errorf("compile extraction schema: %w", err)
	}
	return schema, nil
})

// schemaWarning returns a one-line description of the first shape violation,
// or "" when the payload conforms.
func schemaWarning(payload map[string]any) string {
	schema, err := compiledSchema()
	if err != nil {
		return err.Error()
	}
	if err := schema.Validate(payload); err != nil {
		msg := err.Error()
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			leaf := ve
			for len(leaf.Causes) > 0 {
				leaf = leaf.Causes[0]
			}
			msg = strings.TrimSpace(leaf.InstanceLocation + " " + leaf.Message)
		}
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		return msg
	}
	return ""
}
