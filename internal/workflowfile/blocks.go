package workflowfile

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

const (
	blockWorkflow    = "workflow"
	blockEndpoint    = "endpoint"
	blockInference   = "inference"
	blockInteraction = "interaction"
	blockInput       = "input"
	blockFunction    = "function"
	blockConnect     = "connect"
	blockRun         = "run"
)

// fileSchema lists the top-level blocks. Blocks are walked in source order
// instead of being decoded in one pass so node order survives.
var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: blockWorkflow},
		{Type: blockEndpoint, LabelNames: []string{"name"}},
		{Type: blockInference, LabelNames: []string{"name"}},
		{Type: blockInteraction, LabelNames: []string{"name"}},
		{Type: blockInput, LabelNames: []string{"name"}},
		{Type: blockFunction, LabelNames: []string{"name"}},
		{Type: blockConnect},
		{Type: blockRun, LabelNames: []string{"node"}},
	},
}

type workflowBlock struct {
	Name        string `hcl:"name"`
	StrictFanIn bool   `hcl:"strict_fan_in,optional"`
}

type endpointBlock struct {
	Src     string     `hcl:"src"`
	APIName string     `hcl:"api_name,optional"`
	Inputs  []string   `hcl:"inputs,optional"`
	Fixed   *cty.Value `hcl:"fixed,optional"`
}

type inferenceBlock struct {
	Model string     `hcl:"model"`
	Fixed *cty.Value `hcl:"fixed,optional"`
}

type interactionBlock struct {
	Type string `hcl:"type,optional"`
}

type inputBlock struct {
	Fields   []string   `hcl:"fields"`
	Defaults *cty.Value `hcl:"defaults,optional"`
}

type functionBlock struct {
	Use   string     `hcl:"use"`
	Fixed *cty.Value `hcl:"fixed,optional"`
}

type connectBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

type runBlock struct {
	Values *cty.Value `hcl:"values"`
}
