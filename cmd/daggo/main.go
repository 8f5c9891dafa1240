// Command daggo loads a workflow file, runs it and prints the formatted
// result of every node as JSON.
//
// Usage:
//
//	daggo [-file workflow.hcl] [-describe] [-batch] [-concurrent]
//	      [-node-timeout 2m] [-call-timeout 30s] [-retries 3]
//	      [-log-level info] [-log-format text]
//
// A .env file in the working directory is loaded first. HF_TOKEN
// authenticates endpoint and inference calls; DAGGO_INFERENCE_BASE_URL
// points inference nodes at another OpenAI-compatible API.
package main

import (
	"context"
	"os"
	"os/signal"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
