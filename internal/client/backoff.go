// Roomcast - Real-time room-scoped pub/sub transport
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/roomcast

package client

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff waits n x step before the n-th retry.
type linearBackOff struct {
	step time.Duration
	n    int64
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}

// newPolicy builds the reconnect policy. A negative maxRetries retries forever.
func newPolicy(step time.Duration, maxRetries int) backoff.BackOff {
	linear := &linearBackOff{step: step}
	if maxRetries < 0 {
		return linear
	}
	return backoff.WithMaxRetries(linear, uint64(maxRetries))
}
