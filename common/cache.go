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

package common

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pierrec/lz4/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	ErrCacheMiss           = errors.New("key not found in cache")
	ErrCacheNotInitialized = errors.New("cache has not been setup")
)

var (
	cacheLock sync.RWMutex
	rdb       *redis.Client
	cache     *lru.Cache
)

// SetupCache creates the local LRU cache and, if `cache.redis_url` is not blank, a
// client for the shared redis cache
func SetupCache() error {
	localCache, err := lru.New(viper.GetInt("cache.local_size"))
	if err != nil {
		log.Error().Err(err).Int("Size", viper.GetInt("cache.local_size")).Msg("could not create LRU cache")
		return err
	}

	var redisClient *redis.Client
	if redisURL := viper.GetString("cache.redis_url"); redisURL != "" {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis URL")
			return err
		}
		redisClient = redis.NewClient(opt)
	}

	cacheLock.Lock()
	defer cacheLock.Unlock()
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("could not close previous redis client")
		}
	}
	cache = localCache
	rdb = redisClient

	return nil
}

// CachePurge drops every entry from the local cache; the shared cache expires on its own
func CachePurge() {
	cacheLock.RLock()
	defer cacheLock.RUnlock()

	if cache == nil {
		return
	}

	log.Info().Int("NumEntries", cache.Len()).Msg("purging local cache")
	cache.Purge()
}

func CacheSet(ctx context.Context, key string, val []byte) error {
	cacheLock.RLock()
	defer cacheLock.RUnlock()

	if cache == nil {
		return ErrCacheNotInitialized
	}

	compressed, err := compress(val)
	if err != nil {
		return err
	}
	cache.Add(key, compressed)

	if rdb != nil {
		return rdb.Set(ctx, key, compressed, cacheTTL()).Err()
	}
	return nil
}

func CacheGet(ctx context.Context, key string) ([]byte, error) {
	cacheLock.RLock()
	defer cacheLock.RUnlock()

	if cache == nil {
		return nil, ErrCacheNotInitialized
	}

	if val, ok := cache.Get(key); ok {
		return decompress(val.([]byte))
	}

	if rdb == nil {
		return nil, ErrCacheMiss
	}

	val, err := rdb.GetEx(ctx, key, cacheTTL()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	// promote to the local cache
	cache.Add(key, val)
	return decompress(val)
}

func cacheTTL() time.Duration {
	return time.Duration(viper.GetInt("cache.ttl")) * time.Second
}

func compress(in []byte) ([]byte, error) {
	w := &bytes.Buffer{}
	zw := lz4.NewWriter(w)
	if _, err := io.Copy(zw, bytes.NewReader(in)); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func decompress(in []byte) ([]byte, error) {
	w := &bytes.Buffer{}
	zr := lz4.NewReader(bytes.NewReader(in))
	if _, err := io.Copy(w, zr); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}
