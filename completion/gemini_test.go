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

package completion_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/penny-vault/drip-api/completion"
)

var _ = Describe("Gemini", func() {
	It("requires instructions", func() {
		gemini := completion.NewGemini("secret", "")
		_, err := gemini.Complete(context.Background(), "  \n ")
		Expect(err).To(MatchError(completion.ErrEmptyInstructions))
	})

	It("requires an api key", func() {
		gemini := completion.NewGemini(" ", "")
		_, err := gemini.Complete(context.Background(), "summarize VTI")
		Expect(err).To(MatchError(completion.ErrNotConfigured))
		Expect(err.Error()).To(Equal("GEMINI_API_KEY is not configured"))
	})

	It("checks instructions before the api key", func() {
		gemini := completion.NewGemini("", "")
		_, err := gemini.Complete(context.Background(), "")
		Expect(err).To(MatchError(completion.ErrEmptyInstructions))
	})

	It("reads its settings from the configuration", func() {
		viper.Set("gemini.api_key", "")
		viper.Set("gemini.model", "gemini-test")
		DeferCleanup(func() {
			viper.Set("gemini.model", "")
		})

		gemini := completion.NewGeminiFromConfig()
		_, err := gemini.Complete(context.Background(), "hello")
		Expect(err).To(MatchError(completion.ErrNotConfigured))
	})
})
