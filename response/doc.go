// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package response reassembles the response of one request attempt.

An Accumulator ingests the status line, header fields and body chunks
delivered by a transport, and serves them back as the raw header blob,
case-insensitive header lookups, the body bytes, and the lazily decoded
text, XML and HTML views of the body.
*/
package response
