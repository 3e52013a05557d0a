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

import (
	"errors"
	"fmt"
)

// Sentinel errors for the responder failure categories. Responder failures
// are recovered into a degraded user-visible reply by the dispatcher and
// never surface as transport errors.
var (
	// ErrInvalidExpression means the math responder rejected the input:
	// it is not parseable under the closed expression grammar, or the
	// result failed validation (NaN, magnitude bound).
	ErrInvalidExpression = errors.New("invalid mathematical expression")

	// ErrRetrievalUnavailable means the knowledge index could not be
	// reached or the search call failed after retries.
	ErrRetrievalUnavailable = errors.New("knowledge retrieval unavailable")
)

// ValidationError rejects a malformed request before the pipeline runs.
// Maps to HTTP 400.
type ValidationError struct {
	Details string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("request validation failed: %s", e.Details)
}

// IsValidationError checks if an error is a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PersistenceError means the conversation store could not durably record
// the exchange. This is the only pipeline failure permitted to produce a
// non-2xx transport error, since silently dropping history would break the
// durability contract. Maps to HTTP 503.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("conversation store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceError checks if an error is a *PersistenceError.
// Handlers use this to pick the HTTP status code.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// =============================================================================
// Canned Replies
// =============================================================================

// Bilingual system messages returned for terminal decisions. Kept bilingual
// because the gateway accepts both English and Portuguese queries and a
// terminal decision may fire before the language is known.
const (
	// GenericErrorReply is returned when routing or a pipeline stage
	// failed unrecoverably.
	GenericErrorReply = "Sorry, I could not process your request. " +
		"/ Desculpe, não consegui processar a sua pergunta."

	// UnsupportedLanguageReply is returned when the language guard
	// rejects the query.
	UnsupportedLanguageReply = "Unsupported language. Please ask in English or Portuguese. " +
		"/ Por favor, pergunte em inglês ou português."
)
