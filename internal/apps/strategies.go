package apps

import "strings"

// categoryStrategy decides which schema field carries a download
// client's category for a given application. Strategies are pure: they
// look at the schema (when one was fetched) and the application name,
// and return the field name or false.
type categoryStrategy struct {
	name  string
	apply func(schema *ClientSchema, appName string) (string, bool)
}

// categoryStrategies is tried in order; the first strategy that applies
// wins. Schema knowledge beats the name heuristic, which only exists for
// builds whose schema endpoint is unavailable.
var categoryStrategies = []categoryStrategy{
	{
		name: "schema field",
		apply: func(schema *ClientSchema, _ string) (string, bool) {
			if schema == nil {
				return "", false
			}
			for _, candidate := range []string{"movieCategory", "tvCategory", "category"} {
				if schema.HasField(candidate) {
					return candidate, true
				}
			}
			return "", false
		},
	},
	{
		name: "application heuristic",
		apply: func(_ *ClientSchema, appName string) (string, bool) {
			if strings.Contains(strings.ToLower(appName), "radarr") {
				return "movieCategory", true
			}
			return "tvCategory", true
		},
	},
}

// categoryFieldName resolves the category field for one application.
func categoryFieldName(schema *ClientSchema, appName string) string {
	for _, s := range categoryStrategies {
		if field, ok := s.apply(schema, appName); ok {
			return field
		}
	}
	return "category"
}
