// Copyright 2025 Google LLC
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

// Package clock abstracts wall-clock time so callers that rate-limit by
// elapsed duration (LocalIndex's autosync policy, among others) can be
// driven deterministically in tests.
package clock

import "time"

// Clock is satisfied by RealClock and SimulatedClock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After behaves like time.After, relative to Now.
	After(d time.Duration) <-chan time.Time
}
