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

package simulator

import (
	"errors"
)

var (
	// ErrBadRequest classifies errors caused by a malformed or incomplete request
	ErrBadRequest = errors.New("bad request")

	// ErrInternal classifies unexpected failures outside of a single ticker's simulation
	ErrInternal = errors.New("internal error")
)

// per-ticker failures; these are recorded in the ticker's breakdown entry
var (
	ErrNoData          = errors.New("no price data available for this period")
	ErrInvalidBuyPrice = errors.New("invalid buy price")
	ErrMalformedRecord = errors.New("malformed price record")
	ErrInvalidSymbol   = errors.New("invalid ticker symbol")
)

// RequestError describes what is wrong with a simulation request. It matches
// ErrBadRequest with errors.Is.
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string {
	return e.Msg
}

func (e *RequestError) Is(target error) bool {
	return target == ErrBadRequest
}

func badRequest(msg string) error {
	return &RequestError{Msg: msg}
}
