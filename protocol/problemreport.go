package protocol

// ProblemReport communicates a protocol-level error without tearing down
// the connection. Used for unknown account lookups, unimplemented message
// variants, and malformed bodies — never a panic.
type ProblemReport struct {
	Header
	Code        string `json:"problem-code"`
	Description string `json:"description"`
}

func newProblemReport(code, description string) *ProblemReport {
	return &ProblemReport{
		Header:      Header{ID: newID(), Type: TypeProblemReport},
		Code:        code,
		Description: description,
	}
}
