package types

import "errors"

var ErrStatementNotFound = errors.New("statement not found")
