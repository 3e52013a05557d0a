// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

// Decision is the router's classification of a query. The set is closed:
// the router validates any externally produced answer against these four
// values and anything unrecognizable becomes DecisionError.
type Decision string

const (
	// DecisionMath routes to the deterministic math responder.
	DecisionMath Decision = "MathAgent"

	// DecisionKnowledge routes to the retrieval-backed knowledge
	// responder. Also the absorption target for suspicious queries.
	DecisionKnowledge Decision = "KnowledgeAgent"

	// DecisionUnsupportedLanguage is terminal: the query is not in a
	// supported language and gets the canned bilingual reply.
	DecisionUnsupportedLanguage Decision = "UnsupportedLanguage"

	// DecisionError is terminal: routing failed and the generic error
	// reply is returned.
	DecisionError Decision = "Error"
)

// Terminal reports whether the decision ends the pipeline with a canned
// reply instead of invoking a responder.
func (d Decision) Terminal() bool {
	return d == DecisionUnsupportedLanguage || d == DecisionError
}

// Valid reports whether d is one of the four canonical decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionMath, DecisionKnowledge, DecisionUnsupportedLanguage, DecisionError:
		return true
	}
	return false
}

func (d Decision) String() string { return string(d) }
