// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package dom holds the document trees exposed for response bodies: a
// small XML node tree produced by Parser, and goquery documents for
// HTML.
package dom
