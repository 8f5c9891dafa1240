// Package parse converts node results into typed Go values.
//
// Remote endpoints and language models hand back loosely typed data: decoded
// JSON maps, bare strings, or text that merely contains JSON. [DecodeAs]
// accepts any of these and produces a value of the requested type, repairing
// malformed JSON text with jsonrepair when a strict decode fails.
package parse
