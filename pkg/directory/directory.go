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

// Package directory resolves who may observe whom. All adapters fail closed:
// a lookup error yields an empty set, so a directory outage narrows
// visibility instead of leaking cross-tenant data.
package directory

import "context"

// Directory maps subjects to their owning observers and back. Lookups may hit
// external I/O; callers must not hold registry locks across a call.
type Directory interface {
	// OwnersOf returns the owner identities entitled to observe the subject.
	OwnersOf(ctx context.Context, subject string) map[string]struct{}
	// SubjectsOf returns the subject identities the owner is entitled to
	// observe.
	SubjectsOf(ctx context.Context, owner string) map[string]struct{}
}

// StaticDirectory serves lookups from a fixed subject-to-owners map, the
// default for single-tenant deployments where ownership lives in the config
// file.
type StaticDirectory struct {
	owners   map[string]map[string]struct{}
	subjects map[string]map[string]struct{}
}

// NewStaticDirectory builds both lookup directions from a subject-to-owners
// map.
func NewStaticDirectory(ownership map[string][]string) *StaticDirectory {
	d := &StaticDirectory{
		owners:   make(map[string]map[string]struct{}),
		subjects: make(map[string]map[string]struct{}),
	}

	for subject, owners := range ownership {
		for _, owner := range owners {
			if d.owners[subject] == nil {
				d.owners[subject] = make(map[string]struct{})
			}
			d.owners[subject][owner] = struct{}{}

			if d.subjects[owner] == nil {
				d.subjects[owner] = make(map[string]struct{})
			}
			d.subjects[owner][subject] = struct{}{}
		}
	}

	return d
}

// OwnersOf returns the owners of a subject. Unknown subjects get an empty
// set.
func (d *StaticDirectory) OwnersOf(_ context.Context, subject string) map[string]struct{} {
	return copySet(d.owners[subject])
}

// SubjectsOf returns the subjects of an owner. Unknown owners get an empty
// set.
func (d *StaticDirectory) SubjectsOf(_ context.Context, owner string) map[string]struct{} {
	return copySet(d.subjects[owner])
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}

	return out
}
