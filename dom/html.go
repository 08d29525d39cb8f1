// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses decoded HTML text into a queryable document. HTML
// parsing never fails on malformed markup; an error is only returned if
// the text cannot be read.
func ParseHTML(text string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(text))
}
