package types

// Status is the terminal state of a dispatch.
type Status string

const (
	// StatusSuccess means the operation completed within its bounds.
	StatusSuccess Status = "success"
	// StatusPartial means usable but incomplete output was produced
	// before a bound was hit. Partial is not an error: Error stays null
	// and the signal lives in Status plus Warning.
	StatusPartial Status = "partial"
	// StatusError means the operation failed; Error carries the kind.
	StatusError Status = "error"
)

// Usage reports token and time consumption for a dispatch.
type Usage struct {
	// InputTokens is the estimated token count of the combined prompt.
	InputTokens int `json:"input_tokens"`

	// OutputTokens is the number of tokens actually produced.
	OutputTokens int `json:"output_tokens"`

	// DurationMS is the wall-clock duration from dispatch to result.
	DurationMS int64 `json:"duration_ms"`
}

// ErrorInfo is the structured error carried by a Result with StatusError.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Result is the single normalized outcome shape for every dispatch.
// Exactly one of Output and Error is non-null on terminal states, and
// Error is null unless Status is StatusError.
type Result struct {
	// Status is success, partial, or error.
	Status Status `json:"status"`

	// Intent echoes the request intent.
	Intent Intent `json:"intent,omitempty"`

	// Output is the produced text. Null on error.
	Output *string `json:"output"`

	// Usage reports actual consumption. Zero-valued for non-completion
	// intents.
	Usage Usage `json:"usage"`

	// Error is null unless Status is error.
	Error *ErrorInfo `json:"error"`

	// Warning reports a non-fatal degradation (truncated injection,
	// deadline hit, failed write-back). Never implies failure.
	Warning string `json:"warning,omitempty"`

	// RequestID correlates the result with logs and the audit trail.
	RequestID string `json:"request_id,omitempty"`
}

// NewSuccess builds a success result with the given output.
func NewSuccess(intent Intent, output string, usage Usage) *Result {
	return &Result{Status: StatusSuccess, Intent: intent, Output: &output, Usage: usage}
}

// NewPartial builds a partial result: usable output plus a warning
// explaining which bound was hit. Error stays null.
func NewPartial(intent Intent, output string, usage Usage, warning string) *Result {
	return &Result{Status: StatusPartial, Intent: intent, Output: &output, Usage: usage, Warning: warning}
}

// NewError builds an error result from an EngineError, mapping any other
// error to ErrBackendFailure so no unstructured failure escapes.
func NewError(intent Intent, err error) *Result {
	kind, msg := Classify(err)
	return &Result{
		Status: StatusError,
		Intent: intent,
		Error:  &ErrorInfo{Kind: kind, Message: msg},
	}
}
