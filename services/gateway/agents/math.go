// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agents

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"

	"github.com/jinterlante1206/AleutianDesk/services/gateway/datatypes"
	"github.com/jinterlante1206/AleutianDesk/services/gateway/mathexpr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var mathTracer = otel.Tracer("aleutiandesk.gateway.agents.math")

// maxResultMagnitude caps the absolute value of an accepted result.
// Results past this bound are treated as invalid rather than reported.
const maxResultMagnitude = 1e10

// MathAgent evaluates the arithmetic expression embedded in a query.
//
// Evaluation runs entirely in-process over the closed mathexpr grammar:
// deterministic, pure, independent of conversation state, and with no
// path to code execution. Queries with no parseable expression fail with
// datatypes.ErrInvalidExpression instead of a partial evaluation.
type MathAgent struct{}

// NewMathAgent returns a MathAgent.
func NewMathAgent() *MathAgent {
	return &MathAgent{}
}

// Solve extracts and evaluates the expression in query, returning the
// numeric result as a string.
func (a *MathAgent) Solve(ctx context.Context, query string) (string, error) {
	_, span := mathTracer.Start(ctx, "MathAgent.Solve")
	defer span.End()

	slog.Info("Starting math evaluation", "queryPreview", preview(query, 100))

	expr, ok := extractExpression(query)
	if !ok {
		span.SetStatus(codes.Error, "no expression found")
		return "", fmt.Errorf("%w: no expression found in query", datatypes.ErrInvalidExpression)
	}
	span.SetAttributes(attribute.String("math.expression", expr))

	value, err := mathexpr.Eval(expr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return "", fmt.Errorf("%w: %v", datatypes.ErrInvalidExpression, err)
	}

	if err := validateResult(value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result validation failed")
		return "", err
	}

	result := mathexpr.Format(value)
	slog.Info("Math evaluation completed", "expression", expr, "result", result)
	return result, nil
}

// validateResult bounds the accepted numeric range.
func validateResult(v float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("%w: result is not a number", datatypes.ErrInvalidExpression)
	}
	if math.IsInf(v, 0) || math.Abs(v) > maxResultMagnitude {
		return fmt.Errorf("%w: result magnitude exceeds limit of %g", datatypes.ErrInvalidExpression, float64(maxResultMagnitude))
	}
	return nil
}

// extractExpression pulls the longest evaluable expression out of free
// text like "What is 2 + 2?" or "Calculate (100/5)+2".
//
// The query is split into candidate segments of expression-alphabet runs;
// letter runs survive only when they name a whitelisted function or
// constant. Candidates are tried longest-first against the real grammar,
// so the parser stays the single authority on what is an expression.
func extractExpression(query string) (string, bool) {
	var segments []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
	}

	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r >= '0' && r <= '9' || strings.ContainsRune("+-*/^()., ", r):
			current.WriteRune(r)
		case unicode.IsLetter(r):
			// Consume the whole word; keep it only if whitelisted.
			j := i
			for j < len(runes) && unicode.IsLetter(runes[j]) {
				j++
			}
			word := strings.ToLower(string(runes[i:j]))
			if isMathWord(word) {
				current.WriteString(word)
			} else {
				flush()
			}
			i = j - 1
		default:
			flush()
		}
	}
	flush()

	// Longest candidate first: "Calculate (100/5)+2" yields both
	// " (100/5)+2" and shorter digit runs.
	best := ""
	found := false
	for _, seg := range segments {
		seg = strings.Trim(seg, " .,")
		if seg == "" || !strings.ContainsAny(seg, "0123456789") {
			continue
		}
		if _, err := mathexpr.Eval(seg); err != nil {
			continue
		}
		if !found || len(seg) > len(best) {
			best = seg
			found = true
		}
	}
	return best, found
}

func isMathWord(w string) bool {
	switch w {
	case "sqrt", "abs", "sin", "cos", "tan", "log", "ln", "exp", "pow", "min", "max", "pi", "e":
		return true
	}
	return false
}
