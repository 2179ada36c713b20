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

package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	gocache "github.com/patrickmn/go-cache"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/constants"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/logger"
	"github.com/united-manufacturing-hub/attendance-hub/pkg/metrics"
	"go.uber.org/zap"
)

// HTTPDirectory queries an external ownership service. Results are cached for
// a short TTL so a burst of fan-outs for the same subject costs one round
// trip, and transient failures are retried with exponential backoff before
// failing closed.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
	cache   *gocache.Cache
	log     *zap.SugaredLogger
}

// NewHTTPDirectory creates a directory adapter against the given base URL.
// The service is expected to answer GET {base}/owners?subject=<id> and
// GET {base}/subjects?owner=<id> with a JSON string array.
func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: constants.DirectoryLookupTimeout},
		cache:   gocache.New(constants.DirectoryCacheTTL, constants.DirectoryCacheCullInterval),
		log:     logger.For(logger.ComponentDirectory),
	}
}

// OwnersOf returns the owners of a subject, or an empty set on any failure.
func (d *HTTPDirectory) OwnersOf(ctx context.Context, subject string) map[string]struct{} {
	return d.lookup(ctx, "owners", "subject", subject)
}

// SubjectsOf returns the subjects of an owner, or an empty set on any
// failure.
func (d *HTTPDirectory) SubjectsOf(ctx context.Context, owner string) map[string]struct{} {
	return d.lookup(ctx, "subjects", "owner", owner)
}

func (d *HTTPDirectory) lookup(ctx context.Context, resource string, param string, value string) map[string]struct{} {
	cacheKey := resource + ":" + value
	if cached, found := d.cache.Get(cacheKey); found {
		return copySet(cached.(map[string]struct{}))
	}

	var identities []string

	operation := func() error {
		var err error
		identities, err = d.fetch(ctx, resource, param, value)

		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		// Fail closed: an unreachable directory narrows visibility, it never
		// widens it.
		d.log.Warnf("Ownership lookup %s=%s failed, returning empty set: %s", param, value, err)
		metrics.IncDirectoryErrors()

		return map[string]struct{}{}
	}

	set := make(map[string]struct{}, len(identities))
	for _, identity := range identities {
		set[identity] = struct{}{}
	}
	d.cache.SetDefault(cacheKey, set)

	return copySet(set)
}

func (d *HTTPDirectory) fetch(ctx context.Context, resource string, param string, value string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/%s?%s=%s", d.baseURL, resource, param, url.QueryEscape(value))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %d for %s", resp.StatusCode, endpoint)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var identities []string
	if err := json.Unmarshal(body, &identities); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("directory returned malformed body: %w", err))
	}

	return identities, nil
}
