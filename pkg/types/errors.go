// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error categories. Fatal errors (configuration, input) stop a run before
// any row is processed; per-row errors (lookup, parse) only blank that row.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrInput         = errors.New("input error")
	ErrLookup        = errors.New("lookup error")
	ErrParse         = errors.New("parse error")
)
