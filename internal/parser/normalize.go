package parser

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// normalizeExpense applies the expense field rules to a decoded payload.
// Amount is the single required field; description, category and the Annie
// flag fall back to documented defaults when absent.
func normalizeExpense(payload map[string]interface{}, rawInput, today string) Result {
	amount, err := getOptionalFloat64(payload, "amount")
	if err != nil {
		return errorResult(FailureValidation, err.Error(), rawInput)
	}
	if amount == nil {
		// Deterministic fallback: a single unambiguous shorthand amount in
		// the raw text ("coffee 50k") still yields a usable command.
		amount = amountFromShorthand(rawInput)
	}
	if amount == nil {
		return errorResult(FailureValidation, "Could not parse amount from input", rawInput)
	}

	description, err := getStringOrDefault(payload, "description", "")
	if err != nil {
		return errorResult(FailureValidation, err.Error(), rawInput)
	}
	category, err := getStringOrDefault(payload, "category", "Other")
	if err != nil {
		return errorResult(FailureValidation, err.Error(), rawInput)
	}
	annie, err := getBoolOrDefault(payload, "is_annie_related", false)
	if err != nil {
		return errorResult(FailureValidation, err.Error(), rawInput)
	}

	dateVal, err := getOptionalString(payload, "date")
	if err != nil {
		return errorResult(FailureValidation, err.Error(), rawInput)
	}
	date, err := normalizeDate(dateVal, today)
	if err != nil {
		return errorResult(FailureValidation, err.Error(), rawInput)
	}

	return Result{Expense: &ExpenseCommand{
		Amount:         math.Abs(*amount),
		Description:    description,
		Category:       category,
		IsAnnieRelated: annie,
		Date:           date,
		RawInput:       rawInput,
	}}
}

// normalizeCategoryCommand applies the category-command field rules.
func normalizeCategoryCommand(payload map[string]interface{}, rawInput string) Result {
	actionRaw, err := getStringOrDefault(payload, "action", "")
	if err != nil {
		return errorResult(FailureValidation, err.Error(), rawInput)
	}
	action := strings.ToLower(strings.TrimSpace(actionRaw))
	switch action {
	case ActionAdd, ActionUpdate, ActionRemove:
	default:
		return errorResult(FailureValidation, fmt.Sprintf("Unknown category action: %s", actionRaw), rawInput)
	}

	nameRaw, err := getStringOrDefault(payload, "name", "")
	if err != nil {
		return errorResult(FailureValidation, err.Error(), rawInput)
	}
	name := strings.TrimSpace(nameRaw)
	if name == "" {
		return errorResult(FailureValidation, "Category name is required", rawInput)
	}

	cmd := &CategoryCommand{
		Action:   action,
		Name:     name,
		RawInput: rawInput,
	}

	// Remove never carries a budget, whatever the model produced.
	if action == ActionAdd || action == ActionUpdate {
		budget, err := getOptionalFloat64(payload, "budget")
		if err != nil {
			return errorResult(FailureValidation, err.Error(), rawInput)
		}
		if budget != nil {
			b := math.Abs(*budget)
			cmd.Budget = &b
		}
	}

	return Result{Category: cmd}
}

// normalizeDate resolves relative date tokens against today and validates
// absolute dates as ISO YYYY-MM-DD. nil stays nil; the UI defaults it to
// today at the point of use.
func normalizeDate(value *string, today string) (*string, error) {
	if value == nil {
		return nil, nil
	}

	switch strings.ToUpper(strings.TrimSpace(*value)) {
	case "YESTERDAY":
		t, err := time.Parse("2006-01-02", today)
		if err != nil {
			return nil, fmt.Errorf("normalizeDate: invalid today %q: %w", today, err)
		}
		y := t.AddDate(0, 0, -1).Format("2006-01-02")
		return &y, nil
	case "TODAY", today:
		d := today
		return &d, nil
	}

	if _, err := time.Parse("2006-01-02", *value); err != nil {
		return nil, fmt.Errorf("Invalid date %q: expected YYYY-MM-DD", *value)
	}
	d := *value
	return &d, nil
}

// cleanModelJSON strips Markdown code fences the model sometimes wraps its
// output in, tolerating ```json and bare ``` delimiters as well as unfenced
// output.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Extra safety: if there is still junk around the JSON object, keep only
	// from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

// Field getters fail closed on mistyped values; absent or null values fall
// through to the caller's default.

func getStringOrDefault(m map[string]interface{}, key, def string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("Field %q has type %T, want string", key, v)
	}
	return s, nil
}

func getOptionalString(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("Field %q has type %T, want string or null", key, v)
	}
	return &s, nil
}

func getBoolOrDefault(m map[string]interface{}, key string, def bool) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("Field %q has type %T, want bool", key, v)
	}
	return b, nil
}

func getOptionalFloat64(m map[string]interface{}, key string) (*float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case float64:
		f := val
		return &f, nil
	case int: // unlikely from encoding/json, but harmless to support
		f := float64(val)
		return &f, nil
	default:
		return nil, fmt.Errorf("Field %q has type %T, want number or null", key, v)
	}
}
