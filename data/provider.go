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

package data

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	ProviderTiingo = "tiingo"
	ProviderPvDb   = "pvdb"
)

// NewProvider builds the market data provider selected by `data.provider`, wrapped in
// the cache when `cache.enabled` is set
func NewProvider() (Provider, error) {
	var provider Provider

	kind := strings.ToLower(viper.GetString("data.provider"))
	switch kind {
	case "", ProviderTiingo:
		token := viper.GetString("tiingo.token")
		if token == "" {
			log.Warn().Msg("no tiingo API key provided")
		}
		provider = NewTiingo(token).WithBaseURL(viper.GetString("tiingo.url"))
	case ProviderPvDb:
		provider = NewPvDb()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, kind)
	}

	if viper.GetBool("cache.enabled") {
		provider = NewCachedProvider(provider)
	}

	log.Info().Str("Provider", provider.DataType()).Bool("Cached", viper.GetBool("cache.enabled")).Msg("initialized market data provider")
	return provider, nil
}
