package middleware

import "errors"

// ErrRetryExhausted is returned by the retry middleware when all attempts have
// failed. It is joined with the last underlying error so both can be matched
// with [errors.Is] / [errors.As].
var ErrRetryExhausted = errors.New("daggo: all retry attempts exhausted")
