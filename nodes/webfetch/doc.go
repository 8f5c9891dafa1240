// Package webfetch provides a ready-made function node that downloads a web
// page and converts its HTML to Markdown, so a workflow can feed page text to
// an inference or endpoint node.
package webfetch
