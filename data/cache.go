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
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"

	"github.com/penny-vault/drip-api/common"
)

// CachedProvider memoizes the records returned by another provider in the common
// cache. Empty results are not cached so a newly listed symbol is picked up on the
// next request.
type CachedProvider struct {
	provider Provider
}

func NewCachedProvider(provider Provider) *CachedProvider {
	return &CachedProvider{
		provider: provider,
	}
}

func (c *CachedProvider) DataType() string {
	return c.provider.DataType()
}

func (c *CachedProvider) Fetch(ctx context.Context, symbol string, begin, end time.Time) ([]*DailyRecord, error) {
	subLog := log.With().Str("Symbol", symbol).Str("DataType", c.provider.DataType()).Logger()
	key := cacheKey(c.provider.DataType(), symbol, begin, end)

	raw, err := common.CacheGet(ctx, key)
	switch {
	case err == nil:
		records := make([]*DailyRecord, 0)
		decodeErr := json.Unmarshal(raw, &records)
		if decodeErr == nil {
			subLog.Debug().Int("NumRecords", len(records)).Msg("cache hit")
			return records, nil
		}
		subLog.Warn().Err(decodeErr).Msg("could not decode cached records; refetching")
	case errors.Is(err, common.ErrCacheMiss):
		subLog.Debug().Msg("cache miss")
	default:
		subLog.Warn().Err(err).Msg("cache lookup failed")
	}

	records, err := c.provider.Fetch(ctx, symbol, begin, end)
	if err != nil || len(records) == 0 {
		return records, err
	}

	if raw, err = json.Marshal(records); err != nil {
		subLog.Warn().Err(err).Msg("could not encode records for cache")
		return records, nil
	}

	if err := common.CacheSet(ctx, key, raw); err != nil {
		subLog.Warn().Err(err).Msg("could not store records in cache")
	}

	return records, nil
}

// cacheKey is a hex encoded blake3 hash of the provider, symbol, and date range
func cacheKey(dataType, symbol string, begin, end time.Time) string {
	h := blake3.New()
	for _, part := range []string{dataType, symbol, begin.Format("2006-01-02"), end.Format("2006-01-02")} {
		// blake3 hash writes never fail
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
