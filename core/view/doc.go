// Package view turns a graph and its results into plain data for renderers:
// the slots a user fills in before a run, a structural summary, and per-node
// result cards.
package view
