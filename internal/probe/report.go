package probe

import (
	"encoding/json"
	"sort"
)

// Report is the JSON payload of GET /health. The shape is fixed by the
// hub and must be preserved bit-exact for compatibility:
//
//	{"status": "healthy", "components": {"registry": true, ...}}
type Report struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components"`
}

// StatusHealthy is the only top-level status value that passes.
const StatusHealthy = "healthy"

// ParseReport decodes a health response body.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// FailedComponents returns the names of every component reporting false,
// sorted for stable diagnostics. The verdict is an AND across all
// components: success only when this list is empty.
func (r *Report) FailedComponents() []string {
	var failed []string
	for name, up := range r.Components {
		if !up {
			failed = append(failed, name)
		}
	}
	sort.Strings(failed)
	return failed
}
