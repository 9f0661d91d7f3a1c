package domain

import "errors"

// ErrEmptyQuery indicates a missing or blank query.
var ErrEmptyQuery = errors.New("query must not be empty")
