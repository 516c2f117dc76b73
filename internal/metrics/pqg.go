// internal/metrics/pqg.go
package metrics

import "fmt"

// PQGData is the government-programme tagging a project may carry in its
// metadata. Every field is optional.
type PQGData struct {
	Priority         *string  `json:"priority"`
	Program          *string  `json:"program"`
	Indicators       []string `json:"indicators"`
	ImplementingUnit *string  `json:"implementingUnit"`
	InterventionArea *string  `json:"interventionArea"`
	Location         *string  `json:"location"`
}

// ExtractPQG reads programme tags out of project metadata. It returns nil
// when there is no metadata at all.
func ExtractPQG(metadata map[string]any) *PQGData {
	if len(metadata) == 0 {
		return nil
	}
	return &PQGData{
		Priority:         stringField(metadata, "priority"),
		Program:          stringField(metadata, "program"),
		Indicators:       stringList(metadata["indicators"]),
		ImplementingUnit: stringField(metadata, "implementingUnit"),
		InterventionArea: stringField(metadata, "interventionArea"),
		Location:         stringField(metadata, "location"),
	}
}

func stringField(m map[string]any, key string) *string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case fmt.Stringer:
		s = t.String()
	case float64, int, int64, bool:
		s = fmt.Sprint(t)
	default:
		return nil
	}
	return &s
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
