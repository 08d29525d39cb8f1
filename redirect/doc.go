// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package redirect decides how a request follows an HTTP redirect. A
// generic interface for redirect policies is provided, Policy, along with
// the standard policy returned by NewPolicy and helpers for recognizing
// redirect responses and resolving their Location.
package redirect
