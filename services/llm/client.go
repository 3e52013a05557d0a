// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides the narrow capability interface the gateway uses
// for classification and conversion calls, plus the OpenAI-backed
// implementation and a retrying decorator. Tests substitute deterministic
// fakes behind LLMClient.
package llm

import "context"

// LLMClient defines the standard interface for any LLM backend.
//
// Ask sends one system prompt and one user message and returns the model's
// text. Implementations must respect ctx for cancellation and timeout.
type LLMClient interface {
	Ask(ctx context.Context, systemPrompt, message string) (string, error)
}
