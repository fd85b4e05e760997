package analyze

import (
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/kailas-cloud/askdex/internal/domain"
	"github.com/kailas-cloud/askdex/internal/domain/analysis"
)

const judgeSystemPrompt = `You classify search queries sent to a company knowledge base.
Return JSON only, matching the schema.
- categories: every category the query touches, from the closed list.
- primary_category: the single best category.
- entities: named products, companies, people or technologies with a confidence between 0 and 1.
- query_type: FACTUAL, COMPARATIVE, PROCEDURAL, EXPLANATORY, DEFINITIONAL or EXPLORATORY.
- technical_level: 1 (non-technical) to 10 (expert).
- estimated_result_count: how many passages a complete answer needs.
- is_time_dependent: true when the answer changes over time.
- visual_focus: true when the user wants charts, diagrams, tables, screenshots, photos or infographics.
- complexity: simple, moderate or complex.`

func stringsOf[T ~string](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

// judgeSchema is the strict output schema of the judge. Every property is
// required and no other property is allowed.
var judgeSchema = domain.MustSchema(&jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"categories": {
			Type:  jsonschema.Array,
			Items: &jsonschema.Definition{Type: jsonschema.String, Enum: stringsOf(analysis.Categories)},
		},
		"primary_category": {Type: jsonschema.String, Enum: stringsOf(analysis.Categories)},
		"entities": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"name":       {Type: jsonschema.String},
					"type":       {Type: jsonschema.String},
					"confidence": {Type: jsonschema.Number},
				},
				Required:             []string{"name", "type", "confidence"},
				AdditionalProperties: false,
			},
		},
		"query_type":              {Type: jsonschema.String, Enum: stringsOf(analysis.QueryTypes)},
		"technical_level":         {Type: jsonschema.Integer},
		"estimated_result_count":  {Type: jsonschema.Integer},
		"is_time_dependent":       {Type: jsonschema.Boolean},
		"visual_focus":            {Type: jsonschema.Boolean},
		"visual_focus_confidence": {Type: jsonschema.Number},
		"requested_visual_types": {
			Type:  jsonschema.Array,
			Items: &jsonschema.Definition{Type: jsonschema.String, Enum: stringsOf(analysis.VisualTypes)},
		},
		"complexity": {
			Type: jsonschema.String,
			Enum: []string{string(analysis.Simple), string(analysis.Moderate), string(analysis.Complex)},
		},
	},
	Required: []string{
		"categories", "primary_category", "entities", "query_type", "technical_level",
		"estimated_result_count", "is_time_dependent", "visual_focus",
		"visual_focus_confidence", "requested_visual_types", "complexity",
	},
	AdditionalProperties: false,
})
