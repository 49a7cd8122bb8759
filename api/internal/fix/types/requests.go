package types

// DiagnoseRequest — input for the main repair flow: one media attachment plus
// a free-text problem description.
type DiagnoseRequest struct {
	Media       []byte `json:"-"`
	MimeType    string `json:"mime_type,omitempty"`
	Description string `json:"description"`
	Locale      Locale `json:"locale,omitempty"`
}

// PartRequest — input for the independent part-finder flow.
type PartRequest struct {
	Media    []byte `json:"-"`
	MimeType string `json:"mime_type,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Locale   Locale `json:"locale,omitempty"`
}

// VerifyRequest — "check my work" input: the step the user attempted and a
// photo of the result.
type VerifyRequest struct {
	Media    []byte `json:"-"`
	MimeType string `json:"mime_type,omitempty"`
	Step     string `json:"step"`
	Locale   Locale `json:"locale,omitempty"`
}
