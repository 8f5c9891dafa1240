// Package utils provides shared low-level helpers for daggo's remote
// collaborators: JSON round-trips over HTTP with span events ([DoJSON]),
// server-sent event streams ([OpenEventStream], [SSEScanner]) and string
// truncation for log previews.
package utils
