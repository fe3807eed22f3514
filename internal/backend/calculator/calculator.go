// Package calculator evaluates arithmetic terms into a calculator widget.
package calculator

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/kailas-cloud/metasearch/internal/backend"
	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/query"
	"github.com/kailas-cloud/metasearch/internal/domain/result"
)

// Name is the registry name of the backend.
const Name = "calculator"

const (
	title    = "Calculator"
	subtitle = "Mathematical expressions and unit conversions"
)

var numberLiteral = regexp.MustCompile(`^\s*[-+]?\d+(\.\d+)?\s*$`)

// env exposes math helpers to expressions.
var env = map[string]any{
	"pi":    math.Pi,
	"e":     math.E,
	"sqrt":  math.Sqrt,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"log":   math.Log,
	"log10": math.Log10,
	"exp":   math.Exp,
	"pow":   math.Pow,
}

// Backend inserts a calculator widget at the top of the results.
type Backend struct {
	backend.Base
}

// New creates the calculator backend.
func New() *Backend { return &Backend{} }

// Name returns the registry name.
func (*Backend) Name() string { return Name }

// Search evaluates the term. Terms that are not valid numeric expressions are ignored.
func (*Backend) Search(
	_ context.Context, q query.Query, acc *result.SearchResult,
	_ backend.Options, _ domain.RequestContext, _ backend.Scope,
) error {
	if acc.HasItemType(result.TypeCalculator) {
		return nil
	}

	term := strings.TrimSpace(q.Term())
	switch strings.ToLower(term) {
	case "calc", "calculator":
		acc.InsertItems(0, widget(nil))
		return nil
	}

	value, ok := Evaluate(term)
	if !ok {
		return nil
	}
	acc.InsertItems(0, widget(map[string]any{
		"expression": term,
		"result":     value,
	}))
	return nil
}

// Evaluate returns the formatted numeric result of term.
// Bare numbers, non-numeric results and invalid expressions are rejected.
func Evaluate(term string) (string, bool) {
	if term == "" || numberLiteral.MatchString(term) {
		return "", false
	}
	program, err := expr.Compile(term, expr.Env(env))
	if err != nil {
		return "", false
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return "", false
	}
	return format(out)
}

func format(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", false
		}
		return strconv.FormatFloat(n, 'g', 14, 64), true
	default:
		return "", false
	}
}

func widget(options map[string]any) *result.Item {
	return &result.Item{
		Title:    title,
		Subtitle: subtitle,
		Type:     result.TypeCalculator,
		Options:  options,
	}
}
