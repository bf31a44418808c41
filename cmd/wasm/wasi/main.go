//go:build wasip1

// Command gospel-wasm-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "query": "<expression>", "data": <any JSON value>, "variables": { "name": <any JSON value> } }
//	stdout: { "result": <any JSON value>, "variables": { ... } }   on success
//	        { "error":  "<message>", "code": "<error code>" }     on failure (exit code 1)
//
// "variables" in the response holds the namespace after evaluation, so
// assignments made by the expression are reported back.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gospel.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"query":"#count = #count + 1","variables":{"count":1}}' | wasmtime gospel.wasm
package main

import (
	"context"
	"os"

	json "github.com/goccy/go-json"

	"github.com/sandrolain/gospel"
	"github.com/sandrolain/gospel/pkg/diag"
	"github.com/sandrolain/gospel/pkg/evaluator"
	"github.com/sandrolain/gospel/pkg/types"
)

type request struct {
	Query     string                 `json:"query"`
	Data      interface{}            `json:"data"`
	Variables map[string]interface{} `json:"variables"`
}

type response struct {
	Result    interface{}            `json:"result,omitempty"`
	Variables map[string]interface{} `json:"variables,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Code      types.ErrorCode        `json:"code,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func fail(query string, err error) {
	writeResponse(response{Error: diag.Format(query, err).Error(), Code: types.KindOf(err)}, 1)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	expr, err := gospel.Compile(req.Query)
	if err != nil {
		fail(req.Query, err)
	}

	evalCtx := evaluator.NewContext(req.Data)
	if err := evalCtx.SetVariables(req.Variables); err != nil {
		fail(req.Query, err)
	}
	result, err := evaluator.New(evaluator.WithTimeout(0)).EvalIn(context.Background(), expr, evalCtx)
	if err != nil {
		fail(req.Query, err)
	}

	vars := make(map[string]interface{})
	for _, name := range evalCtx.VariableNames() {
		tv, _ := evalCtx.LookupVariable(name)
		vars[name] = tv.Interface()
	}
	writeResponse(response{Result: result.Interface(), Variables: vars}, 0)
}
