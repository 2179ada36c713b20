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

package constants

import "time"

const (
	// ActiveShiftLookback is the window within which a non-checked-out record
	// counts as the identity's one active shift. A record older than this is
	// treated as abandoned rather than active.
	ActiveShiftLookback = 24 * time.Hour

	// DirectoryCacheTTL is how long ownership lookup results are cached.
	DirectoryCacheTTL = 30 * time.Second

	// DirectoryCacheCullInterval is how often expired directory cache entries
	// are purged.
	DirectoryCacheCullInterval = time.Minute

	// DirectoryLookupTimeout bounds a single ownership lookup round trip.
	DirectoryLookupTimeout = 5 * time.Second
)
