package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/sandrolain/gospel/pkg/diag"
)

// Env is what a command sees of the process.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
}

// OSEnv returns the Env of the running process.
func OSEnv() Env {
	return Env{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr, Getenv: os.Getenv}
}

// varFlags collects repeated -var name=json flags.
type varFlags map[string]interface{}

func (v varFlags) String() string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	return strings.Join(names, ",")
}

func (v varFlags) Set(s string) error {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=json, got %q", s)
	}
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		// Anything that is not JSON is taken as a plain string.
		value = raw
	}
	v[name] = value
	return nil
}

// readData decodes the JSON document at path ("-" for stdin). An empty
// path yields a nil root.
func readData(path string, stdin io.Reader) (interface{}, error) {
	if path == "" {
		return nil, nil
	}
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var data interface{}
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

func newFlagSet(name string, env Env) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	return fs
}

// HandleEval runs "gospel eval [flags] <expr>" and returns the exit code.
func HandleEval(args []string, cfg Config, env Env) int {
	fs := newFlagSet("eval", env)
	dataPath := fs.String("data", "", "JSON file used as the root object (- for stdin)")
	pretty := fs.Bool("pretty", false, "indent the JSON result")
	vars := varFlags{}
	fs.Var(vars, "var", "bind a variable as name=json (repeatable)")
	cfg.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(env.Stderr, "Usage: gospel eval [flags] <expression>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	query := fs.Arg(0)

	data, err := readData(*dataPath, env.Stdin)
	if err != nil {
		fmt.Fprintf(env.Stderr, "❌ %v\n", err)
		return 1
	}

	ev := cfg.Evaluator(env.Stderr)
	expr, err := ev.Compile(query)
	if err != nil {
		fmt.Fprintf(env.Stderr, "❌ %v\n", diag.Format(query, err))
		return 1
	}
	result, err := ev.EvalWithBindings(context.Background(), expr, data, vars)
	if err != nil {
		fmt.Fprintf(env.Stderr, "❌ %v\n", diag.Format(query, err))
		return 1
	}

	var out []byte
	if *pretty {
		out, err = json.MarshalIndent(result, "", "  ")
	} else {
		out, err = json.Marshal(result)
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "❌ %v\n", err)
		return 1
	}
	fmt.Fprintln(env.Stdout, string(out))
	return 0
}
