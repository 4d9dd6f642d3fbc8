package compliance

// Record is one reported outcome: a pass or fail for a field or series
// check against one mapped acquisition pair. Records are produced in a
// stable order and never mutated.
type Record struct {
	ReferenceAcquisition string `json:"reference_acquisition"`
	InputAcquisition     string `json:"input_acquisition,omitempty"`
	Series               string `json:"series,omitempty"`
	Field                string `json:"field,omitempty"`
	Rule                 string `json:"rule,omitempty"`
	Expected             any    `json:"expected,omitempty"`
	Value                any    `json:"value,omitempty"`
	Message              string `json:"message"`
	Passed               bool   `json:"passed"`
}
