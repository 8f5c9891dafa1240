// Package workflowfile loads workflow definitions written in HCL and builds
// the corresponding graph.
//
// A file declares nodes with one block each, wires them with connect blocks
// and supplies entry values with run blocks:
//
//	workflow {
//	  name = "captioner"
//	}
//
//	input "form" {
//	  fields   = ["url"]
//	}
//
//	function "page" {
//	  use = "webfetch"
//	}
//
//	inference "summary" {
//	  model = "meta-llama/Llama-3.1-8B-Instruct"
//	}
//
//	connect {
//	  from = "form.url"
//	  to   = "page.url"
//	}
//
//	connect {
//	  from = "page.markdown"
//	  to   = "summary"
//	}
//
//	run "form" {
//	  values = { url = "https://go.dev" }
//	}
//
// Nodes are added in file order, so the order of independent blocks is the
// order in which they execute.
package workflowfile
