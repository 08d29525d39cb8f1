// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package charset decides which character encoding a response body is
// in and converts it to UTF-8.
//
// Detect implements the decision order: byte order mark, explicit hint,
// BOM-less UTF-16 XML prolog, in-document declaration, UTF-8. Convert
// tolerates a small number of undecodable units, about 1% of the input,
// before giving up, and Resolve ties the two together with a fallback
// encoding so that a body in an unknown or mislabelled encoding still
// yields text.
package charset
