package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across the workflow engine and its collaborators.

// --- Workflow Attributes ---

const (
	// AttrGraphName is the persistence name of the workflow graph.
	AttrGraphName = "graph.name"

	// AttrNodeName is the name of the node being built or executed.
	AttrNodeName = "graph.node.name"

	// AttrNodeKind is the variant of the node (function, endpoint, inference, ...).
	AttrNodeKind = "graph.node.kind"

	// AttrNodeInputs lists the resolved input keys handed to a node.
	AttrNodeInputs = "graph.node.inputs"

	// AttrNodeStatus is the execution status of a node.
	AttrNodeStatus = "graph.node.status"

	// AttrNodeLevel is the topological generation of the node (0-based).
	AttrNodeLevel = "graph.node.level"

	// AttrEdge is the textual form of a connection ("a.output -> b.input").
	AttrEdge = "graph.edge"

	// AttrTotalNodes is the number of nodes in a run.
	AttrTotalNodes = "graph.total_nodes"

	// AttrExecutionOrder is the flattened topological order of a graph.
	AttrExecutionOrder = "graph.execution_order"
)

// --- Remote Endpoint Attributes ---

const (
	// AttrEndpointSource is the address of a remote endpoint.
	AttrEndpointSource = "endpoint.src"

	// AttrEndpointAPIName is the API route invoked on a remote endpoint.
	AttrEndpointAPIName = "endpoint.api_name"

	// AttrEndpointAttempt is the 1-based attempt number of a predict call.
	AttrEndpointAttempt = "endpoint.attempt"
)

// --- Inference Attributes ---

const (
	// AttrInferenceModel is the model identifier used for text generation.
	AttrInferenceModel = "inference.model"

	// AttrInferencePromptLength is the length of the prompt in bytes.
	AttrInferencePromptLength = "inference.prompt.length"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanGraphExecute wraps a full workflow run.
	SpanGraphExecute = "graph.execute"

	// SpanNodeExecute wraps a single node invocation.
	SpanNodeExecute = "graph.node.execute"

	// SpanEndpointDiscover wraps remote interface discovery.
	SpanEndpointDiscover = "endpoint.discover"

	// SpanEndpointPredict wraps a remote predict call.
	SpanEndpointPredict = "endpoint.predict"
)

// --- Metric Names ---

const (
	// MetricNodeCount counts node executions by status.
	MetricNodeCount = "daggo.graph.node.count"

	// MetricNodeDuration records node execution duration in seconds.
	MetricNodeDuration = "daggo.graph.node.duration"

	// MetricRunDuration records full workflow run duration in seconds.
	MetricRunDuration = "daggo.graph.execution.duration"

	// MetricDiagnosticCount counts non-fatal diagnostics raised while building graphs.
	MetricDiagnosticCount = "daggo.graph.diagnostic.count"
)
