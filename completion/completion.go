// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package completion forwards free-form instructions to a hosted language model.
package completion

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured     = errors.New("GEMINI_API_KEY is not configured")
	ErrEmptyInstructions = errors.New("Missing required field: instructions")
	ErrEmptyResponse     = errors.New("model returned an empty response")
)

type Client interface {
	Complete(ctx context.Context, instructions string) (string, error)
}
