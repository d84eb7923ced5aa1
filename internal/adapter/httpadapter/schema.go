package httpadapter

import "github.com/xeipuuv/gojsonschema"

const assessmentSchemaJSON = `{
  "type": "object",
  "required": ["property"],
  "properties": {
    "property": {
      "type": "object",
      "properties": {
        "assessedValue":       {"type": ["number", "null"]},
        "marketValueEstimate": {"type": ["number", "null"]},
        "lastSalePrice":       {"type": ["number", "null"], "minimum": 0},
        "lastSaleDate":        {"type": "string"},
        "squareFeet":          {"type": ["number", "null"], "minimum": 0},
        "yearBuilt":           {"type": ["integer", "null"]},
        "bedrooms":            {"type": ["integer", "null"], "minimum": 0},
        "bathrooms":           {"type": ["number", "null"], "minimum": 0},
        "lotSize":             {"type": ["number", "null"]},
        "propertyType":        {"type": "string"},
        "dataSource":          {"type": "string"}
      }
    },
    "corrections": {
      "type": "object",
      "properties": {
        "assessedValue":     {"type": "number"},
        "lastSalePrice":     {"type": "number", "minimum": 0},
        "lastSaleDate":      {"type": "string"},
        "squareFeet":        {"type": "number", "minimum": 0},
        "yearBuilt":         {"type": "integer"},
        "bedrooms":          {"type": "integer", "minimum": 0},
        "bathrooms":         {"type": "number", "minimum": 0},
        "propertyType":      {"type": "string"},
        "condition":         {"enum": ["excellent", "good", "fair", "poor", "Excellent", "Good", "Fair", "Poor", ""]},
        "recentRenovations": {"type": "boolean"},
        "additionalNotes":   {"type": "string"}
      }
    }
  }
}`

var assessmentSchema = mustSchema(assessmentSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic("compile schema: " + err.Error())
	}
	return s
}

// validateAssessment returns one message per schema violation.
func validateAssessment(body []byte) ([]string, error) {
	result, err := assessmentSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		details = append(details, e.String())
	}
	return details, nil
}
