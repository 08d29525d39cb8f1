// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transport defines the contract between a request and the code
that moves its bytes, and provides the net/http implementation.

A Transport starts one attempt per redirect leg and reports progress to a
Receiver: once when the response headers arrive, once per body chunk,
and once when the attempt finishes. Canceling the Handle of an attempt
stops all further callbacks for it.

Asynchronous attempts deliver callbacks through the Poster carried by the
Request, so that they run on the goroutine that owns the request.
Synchronous attempts deliver them before Start returns.
*/
package transport
