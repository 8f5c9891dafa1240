// Package gradio implements [endpoint.Connector] for Gradio applications,
// including Hugging Face Spaces.
//
// A source is either a full URL ("https://example.com/app") or a Space id
// ("owner/space"), which resolves to https://owner-space.hf.space.
//
// Discovery reads the app's /info document and keeps the declaration order of
// its named endpoints. Invocation uses the two-step call protocol: a POST to
// /call/<api> returns an event id, and a GET on /call/<api>/<event_id> streams
// server-sent events until a "complete" or "error" event arrives. Both the
// Gradio 5 "/gradio_api" prefix and the legacy root layout are supported.
//
// Example:
//
//	connector := gradio.New(
//	    gradio.WithToken(os.Getenv("HF_TOKEN")),
//	    gradio.WithMiddleware(middleware.NewRetryMiddleware(middleware.RetryConfig{})),
//	)
//	node := graph.NewEndpointNode("owner/space", connector)
package gradio
