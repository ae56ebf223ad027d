package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// shorthandRe matches informal amounts like "50k", "1.5M" or "200 K".
// Decimal comma is accepted alongside the dot.
var shorthandRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*([km])\b`)

// ParseShorthandAmount expands a single shorthand amount token: k/K multiplies
// by 1,000, m/M by 1,000,000. Returns false for anything else.
func ParseShorthandAmount(s string) (float64, bool) {
	m := shorthandRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "k":
		return n * 1_000, true
	case "m":
		return n * 1_000_000, true
	}
	return 0, false
}

// amountFromShorthand scans free text for shorthand amounts. It only commits
// when exactly one occurs; two or more is ambiguous ("coffee 50k, lunch 200k")
// and stays with the model's verdict.
func amountFromShorthand(text string) *float64 {
	matches := shorthandRe.FindAllStringSubmatch(text, -1)
	if len(matches) != 1 {
		return nil
	}
	amount, ok := ParseShorthandAmount(matches[0][0])
	if !ok {
		return nil
	}
	return &amount
}
