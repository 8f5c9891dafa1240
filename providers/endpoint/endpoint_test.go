package endpoint

import (
	"context"
	"reflect"
	"testing"
)

func TestSignature_InputNamesFallbacks(testCase *testing.T) {
	signature := Signature{
		Parameters: []Parameter{
			{Name: "prompt", Label: "Prompt"},
			{Label: "Seed"},
			{},
		},
	}

	got := signature.InputNames()
	want := []string{"prompt", "Seed", "input_2"}
	if !reflect.DeepEqual(got, want) {
		testCase.Errorf("expected %v, got %v", want, got)
	}
}

func TestSignature_OutputNamesFallbacks(testCase *testing.T) {
	signature := Signature{Returns: []Return{{Label: "Image"}, {}}}

	got := signature.OutputNames()
	want := []string{"Image", "output_1"}
	if !reflect.DeepEqual(got, want) {
		testCase.Errorf("expected %v, got %v", want, got)
	}
}

func TestDescription_Select(testCase *testing.T) {
	description := &Description{
		Endpoints: []Signature{
			{APIName: "/lambda"},
			{APIName: "/predict"},
			{APIName: "/infer"},
		},
	}

	tests := []struct {
		name    string
		apiName string
		want    string
		found   bool
	}{
		{name: "default prefers predict", apiName: "", want: "/predict", found: true},
		{name: "explicit with slash", apiName: "/infer", want: "/infer", found: true},
		{name: "explicit without slash", apiName: "lambda", want: "/lambda", found: true},
		{name: "unknown", apiName: "/missing", found: false},
	}

	for _, tt := range tests {
		testCase.Run(tt.name, func(t *testing.T) {
			signature, found := description.Select(tt.apiName)
			if found != tt.found {
				t.Fatalf("expected found=%v, got %v", tt.found, found)
			}
			if found && signature.APIName != tt.want {
				t.Errorf("expected %s, got %s", tt.want, signature.APIName)
			}
		})
	}
}

func TestDescription_SelectFallsBackToFirst(testCase *testing.T) {
	description := &Description{Endpoints: []Signature{{APIName: "/a"}, {APIName: "/b"}}}

	signature, found := description.Select("")
	if !found || signature.APIName != "/a" {
		testCase.Errorf("expected first endpoint, got %+v (found %v)", signature, found)
	}

	var empty *Description
	if _, found := empty.Select(""); found {
		testCase.Error("expected nil description to select nothing")
	}
}

type recordingClient struct {
	calls []string
}

func (client *recordingClient) Predict(_ context.Context, apiName string, _ map[string]any) (any, error) {
	client.calls = append(client.calls, "base:"+apiName)
	return "ok", nil
}

func TestChain_OrderOutermostFirst(testCase *testing.T) {
	base := &recordingClient{}

	tag := func(label string) Middleware {
		return func(next PredictFunc) PredictFunc {
			return func(ctx context.Context, request PredictRequest) (any, error) {
				base.calls = append(base.calls, label+":"+request.Source)
				return next(ctx, request)
			}
		}
	}

	client := Chain(base, "owner/space", tag("first"), tag("second"))

	result, err := client.Predict(context.Background(), "/predict", nil)
	if err != nil || result != "ok" {
		testCase.Fatalf("unexpected result %v (err %v)", result, err)
	}

	want := []string{"first:owner/space", "second:owner/space", "base:/predict"}
	if !reflect.DeepEqual(base.calls, want) {
		testCase.Errorf("expected %v, got %v", want, base.calls)
	}
}

func TestChain_NoMiddlewaresReturnsClient(testCase *testing.T) {
	base := &recordingClient{}
	if Chain(base, "src") != Client(base) {
		testCase.Error("expected the original client when no middleware is given")
	}
}
