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
	// DefaultHeartbeatInterval is how often a keep-alive comment frame is
	// written to every open event stream. Intermediary proxies commonly cut
	// idle connections after 30-60s, so this must stay below that.
	DefaultHeartbeatInterval = 25 * time.Second

	// DefaultPendingBufferCap is the maximum number of messages retained for
	// a connection id that is not currently open. Oldest entries are evicted
	// first once the cap is reached.
	DefaultPendingBufferCap = 30

	// PendingQueueTTL is how long a pending queue survives without its
	// destination reconnecting before it is culled.
	PendingQueueTTL = 10 * time.Minute

	// PendingQueueCullInterval is how often expired pending queues are swept.
	PendingQueueCullInterval = time.Minute

	// SendChannelSize is the per-connection outbound frame buffer. A
	// connection that falls this far behind is treated as dead and evicted,
	// so a stuck client cannot stall delivery to anyone else.
	SendChannelSize = 32
)
