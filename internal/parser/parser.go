package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Completer is the external text-completion collaborator. Implementations are
// expected to apply their own hard timeout; any failure (timeout, transport,
// quota) surfaces as an error and is mapped to an ErrorResult by the parser.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DefaultCategories is the fallback category vocabulary used when the caller
// supplies no known categories.
var DefaultCategories = []string{
	"Groceries", "Dining", "Transport", "Utilities", "Health",
	"Education", "Entertainment", "Shopping", "Hobbies", "Other",
}

const systemPrompt = `Parse input as JSON. k=thousand, M=million.

EXPENSE: {"type":"expense","amount":NUMBER,"description":"TEXT","category":"NAME","is_annie_related":BOOL,"date":"YYYY-MM-DD or null"}
CATEGORY CMD: {"type":"category","action":"add|update|remove","name":"NAME","budget":NUMBER or null}

Rules: "add/set X 5M"=category cmd. "coffee 50k"=expense. Annie/baby/child=is_annie_related:true.
Return ONLY valid raw JSON. Do NOT wrap the response in code fences.`

// Parser turns free text into a normalized expense or category command by way
// of the completion collaborator. It performs no storage I/O; every call is
// independent and stateless, so concurrent use needs no locking.
type Parser struct {
	completer Completer
	now       func() time.Time
	log       zerolog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock overrides the clock used to resolve TODAY/YESTERDAY. Tests use
// this to pin the current date.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithLogger attaches a logger for parse diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Parser) { p.log = log }
}

// New creates a Parser on top of the given completion collaborator.
func New(completer Completer, opts ...Option) *Parser {
	p := &Parser{
		completer: completer,
		now:       time.Now,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseInput parses arbitrary user-typed text into a normalized command.
// knownCategories guides category inference; when empty the fixed default
// vocabulary is used. All failures come back as data in Result.Err, never as
// a Go error: malformed, ambiguous, or out-of-vocabulary input becomes a
// typed ErrorResult rather than a best-guess command.
func (p *Parser) ParseInput(ctx context.Context, text string, knownCategories []string) Result {
	today := p.now().Format("2006-01-02")
	prompt := buildPrompt(text, today, knownCategories)

	raw, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		p.log.Warn().Err(err).Str("input", text).Msg("completion call failed")
		return errorResult(FailureCompletion, fmt.Sprintf("Parsing error: %v", err), text)
	}

	clean := cleanModelJSON(raw)

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		p.log.Warn().Err(err).Str("response", raw).Msg("model response is not valid JSON")
		return errorResult(FailureDecode, fmt.Sprintf("Failed to parse AI response: %v", err), text)
	}

	// "category" routes to command normalization; anything else, including a
	// missing type field, defaults to expense for backward compatibility.
	if typ, _ := payload["type"].(string); typ == "category" {
		return normalizeCategoryCommand(payload, text)
	}
	return normalizeExpense(payload, text, today)
}

// buildPrompt assembles the instruction block, the category hint and the
// current date around the user text.
func buildPrompt(text, today string, knownCategories []string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	if len(knownCategories) == 0 {
		knownCategories = DefaultCategories
	}
	b.WriteString("\n\nAvailable categories: ")
	b.WriteString(strings.Join(knownCategories, ", "))
	b.WriteString(". Use one of these for expenses, or 'Other' if none fit.")

	b.WriteString("\n\nToday's date is ")
	b.WriteString(today)
	b.WriteString(".\n\nParse this: ")
	b.WriteString(text)

	return b.String()
}
