// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package backoff protects remote hosts from abusive request patterns.

A Guard is consulted before a request starts and told the outcome once it
finishes. The Ledger guard keeps a per-host record of consecutive
failures and, after the third failure, refuses new requests to the host
for a randomized interval: a constant interval after network errors, and
a truncated binary exponential one after server errors. Hosts that
answer with a 1xx through 4xx status are forgiven immediately.

A Ledger can be saved to and restored from a Store, so that backoff
survives restarts. MemoryStore and SQLiteStore are provided.

NewThrottle returns a Guard limiting how many requests start per host
per period. Use All to combine guards.
*/
package backoff
