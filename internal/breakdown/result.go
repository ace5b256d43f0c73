package breakdown

// ConceptResult is the structured explanation returned for one concept.
// Examples and Mermaid always encode as JSON arrays.
type ConceptResult struct {
	Concept     string   `json:"concept"`
	Definition  string   `json:"definition"`
	Explanation string   `json:"explanation"`
	Examples    []string `json:"examples"`
	Mermaid     []string `json:"mermaid"`
	Summary     string   `json:"summary"`
}

// Clone returns a copy that shares no slices with r.
func (r ConceptResult) Clone() ConceptResult {
	out := r
	out.Examples = append([]string{}, r.Examples...)
	out.Mermaid = append([]string{}, r.Mermaid...)
	return out
}

// ErrorResult keeps the ConceptResult shape, with every content field empty,
// and describes why the pipeline failed.
type ErrorResult struct {
	ConceptResult
	ErrorSource     string `json:"errorSource"`
	ErrorKind       Kind   `json:"errorKind"`
	ErrorMessage    string `json:"errorMessage"`
	OriginalConcept string `json:"originalConcept"`
}

func NewErrorResult(source, concept string, err error) ErrorResult {
	msg := "error processing request"
	if err != nil {
		msg = err.Error()
	}
	return ErrorResult{
		ConceptResult: ConceptResult{
			Concept:  concept,
			Examples: []string{},
			Mermaid:  []string{},
		},
		ErrorSource:     source,
		ErrorKind:       KindOf(err),
		ErrorMessage:    msg,
		OriginalConcept: concept,
	}
}
