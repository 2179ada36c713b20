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

package relay

import (
	"context"
	"time"

	"github.com/united-manufacturing-hub/attendance-hub/pkg/logger"
)

// StartHeartbeat runs the keep-alive scheduler until the context is
// cancelled. Every interval it enqueues a comment frame to each open
// connection; a connection that cannot accept the frame is pruned through the
// same eviction path as an ordinary delivery failure.
func (h *Hub) StartHeartbeat(ctx context.Context, interval time.Duration) {
	go func() {
		log := logger.For(logger.ComponentHeartbeat)
		log.Infof("Heartbeat scheduler started with interval %s", interval)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Heartbeat scheduler stopped")

				return
			case <-ticker.C:
				for _, sub := range h.snapshot() {
					h.push(sub, Frame{Comment: true})
				}
			}
		}
	}()
}
