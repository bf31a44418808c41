//go:build js && wasm

// Command gospel-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `gospel` object with the following API:
//
//	gospel.version()               → string
//	gospel.eval(query, dataJSON)   → resultJSON  (throws on error)
//	gospel.compile(query)          → { eval(dataJSON) → resultJSON }  (throws on error)
//	gospel.session(dataJSON)       → { eval(query) → resultJSON }  (variables persist between calls)
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o gospel.wasm ./cmd/wasm/js/
package main

import (
	"context"
	"fmt"
	"syscall/js"

	json "github.com/goccy/go-json"

	"github.com/sandrolain/gospel"
	"github.com/sandrolain/gospel/pkg/evaluator"
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

func parseData(fn, raw string) interface{} {
	var data interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		jsThrow(fmt.Sprintf("%s: invalid data JSON: %v", fn, err))
	}
	return data
}

func marshal(fn string, v interface{}) string {
	out, err := json.Marshal(v)
	if err != nil {
		jsThrow(fmt.Sprintf("%s: marshal result: %v", fn, err))
	}
	return string(out)
}

// jsEval implements gospel.eval(query, dataJSON) → resultJSON.
func jsEval(_ js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		jsThrow("gospel.eval requires 2 arguments: query (string) and data (JSON string)")
	}
	result, err := gospel.EvalWithContext(context.Background(), args[0].String(), parseData("gospel.eval", args[1].String()),
		gospel.WithTimeout(0),
	)
	if err != nil {
		jsThrow(fmt.Sprintf("gospel.eval: %v", err))
	}
	return marshal("gospel.eval", result)
}

// jsCompile implements gospel.compile(query) → { eval(dataJSON) → resultJSON }.
func jsCompile(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("gospel.compile requires 1 argument: query (string)")
	}
	expr, err := gospel.Compile(args[0].String())
	if err != nil {
		jsThrow(fmt.Sprintf("gospel.compile: %v", err))
	}

	ev := evaluator.New(evaluator.WithTimeout(0))
	evalFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) interface{} {
		if len(innerArgs) < 1 {
			jsThrow("compiled.eval requires 1 argument: data (JSON string)")
		}
		r, e := ev.Eval(context.Background(), expr, parseData("compiled.eval", innerArgs[0].String()))
		if e != nil {
			jsThrow(fmt.Sprintf("compiled.eval: %v", e))
		}
		return marshal("compiled.eval", r)
	})

	return js.ValueOf(map[string]interface{}{"eval": evalFn})
}

// jsSession implements gospel.session(dataJSON) → { eval(query) → resultJSON }.
func jsSession(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("gospel.session requires 1 argument: data (JSON string)")
	}
	evalCtx := evaluator.NewContext(parseData("gospel.session", args[0].String()))
	ev := evaluator.New(evaluator.WithTimeout(0), evaluator.WithCaching(true))

	evalFn := js.FuncOf(func(_ js.Value, innerArgs []js.Value) interface{} {
		if len(innerArgs) < 1 {
			jsThrow("session.eval requires 1 argument: query (string)")
		}
		expr, err := ev.Compile(innerArgs[0].String())
		if err != nil {
			jsThrow(fmt.Sprintf("session.eval: %v", err))
		}
		r, err := ev.EvalIn(context.Background(), expr, evalCtx)
		if err != nil {
			jsThrow(fmt.Sprintf("session.eval: %v", err))
		}
		return marshal("session.eval", r.Interface())
	})

	return js.ValueOf(map[string]interface{}{"eval": evalFn})
}

func main() {
	api := map[string]interface{}{
		"eval":    js.FuncOf(jsEval),
		"compile": js.FuncOf(jsCompile),
		"session": js.FuncOf(jsSession),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return gospel.Version()
		}),
	}
	js.Global().Set("gospel", js.ValueOf(api))

	// Block forever: the JS event loop owns execution from here.
	select {}
}
