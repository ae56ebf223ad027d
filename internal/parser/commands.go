package parser

// FailureKind classifies why a parse attempt produced no command.
type FailureKind string

const (
	// FailureCompletion indicates the completion call failed or timed out.
	FailureCompletion FailureKind = "completion"
	// FailureDecode indicates the model response was not valid JSON after
	// fence stripping.
	FailureDecode FailureKind = "decode"
	// FailureValidation indicates the response decoded but failed a
	// field-level rule.
	FailureValidation FailureKind = "validation"
)

// ExpenseCommand is a normalized expense extracted from free text.
// Category holds the category name, not an id; resolution to an id happens at
// save time. Date is an ISO YYYY-MM-DD string, nil when the input carried no
// date reference; the caller defaults it to today at the point of use.
type ExpenseCommand struct {
	Amount         float64 `json:"amount"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	IsAnnieRelated bool    `json:"is_annie_related"`
	Date           *string `json:"date"`
	RawInput       string  `json:"raw_input"`
}

// Category command actions.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionRemove = "remove"
)

// CategoryCommand is a normalized budget-category command ("add Dining 3M",
// "set Groceries 5M", "remove Travel"). Budget is present only for add and
// update; remove never carries one regardless of model output.
type CategoryCommand struct {
	Action   string   `json:"action"`
	Name     string   `json:"name"`
	Budget   *float64 `json:"budget,omitempty"`
	RawInput string   `json:"raw_input"`
}

// ErrorResult is a parse failure returned as data. The message is shown to
// the user verbatim; a failed parse never reaches storage.
type ErrorResult struct {
	Kind     FailureKind `json:"kind"`
	Message  string      `json:"error"`
	RawInput string      `json:"raw_input"`
}

// Result is the outcome of a single ParseInput call. Exactly one of the three
// fields is set.
type Result struct {
	Expense  *ExpenseCommand  `json:"expense,omitempty"`
	Category *CategoryCommand `json:"category,omitempty"`
	Err      *ErrorResult     `json:"err,omitempty"`
}

// Failed reports whether the parse collapsed to an ErrorResult.
func (r Result) Failed() bool {
	return r.Err != nil
}

// RawInput returns the original text the result was parsed from.
func (r Result) RawInput() string {
	switch {
	case r.Expense != nil:
		return r.Expense.RawInput
	case r.Category != nil:
		return r.Category.RawInput
	case r.Err != nil:
		return r.Err.RawInput
	}
	return ""
}

func errorResult(kind FailureKind, msg, rawInput string) Result {
	return Result{Err: &ErrorResult{Kind: kind, Message: msg, RawInput: rawInput}}
}
