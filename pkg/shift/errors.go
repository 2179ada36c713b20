// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shift

import "errors"

var (
	// ErrValidation marks a malformed punch request (unknown action, missing
	// fields). No state change.
	ErrValidation = errors.New("validation error")

	// ErrConflict marks a punch that is valid in shape but not in the current
	// state: duplicate check-in, break started twice, check-out while on
	// break. Surfaced verbatim to the caller; no state change.
	ErrConflict = errors.New("conflict")

	// ErrInvariant marks a punch that the state allows but the record
	// contradicts, such as a break-out with no open session of that kind.
	// Logged; no state change.
	ErrInvariant = errors.New("invariant violation")
)
