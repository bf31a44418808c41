package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/peterh/liner"

	"github.com/sandrolain/gospel/pkg/diag"
	"github.com/sandrolain/gospel/pkg/evaluator"
)

// Consumer does the eval work of a read-eval-print loop.
type Consumer interface {
	// Consume handles one line and reports whether the loop should stop.
	Consume(line string) bool
	Prompt() string
}

// Run reads lines with liner and hands them to c until c asks to stop or
// input ends.
func Run(c Consumer) error {
	l := liner.NewLiner()
	defer l.Close()
	l.SetCtrlCAborts(true)
	for {
		line, err := l.Prompt(c.Prompt())
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if c.Consume(line) {
			return nil
		}
		if strings.TrimSpace(line) != "" {
			l.AppendHistory(line)
		}
	}
}

// Session evaluates REPL lines in one EvalContext, so variables assigned on
// one line are visible on the next.
type Session struct {
	ev      *evaluator.Evaluator
	evalCtx *evaluator.EvalContext
	out     io.Writer
}

// NewSession starts a session whose root object is root.
func NewSession(ev *evaluator.Evaluator, root interface{}, out io.Writer) *Session {
	return &Session{
		ev:      ev,
		evalCtx: evaluator.NewContext(root),
		out:     out,
	}
}

// Context returns the session's evaluation context.
func (s *Session) Context() *evaluator.EvalContext {
	return s.evalCtx
}

func (s *Session) Prompt() string {
	return "gospel> "
}

const replHelp = `Commands:
  :vars          list variables
  :unset <name>  remove a variable
  :root          print the root object
  :help          show this help
  :quit          leave
Anything else is evaluated as an expression.`

// Consume evaluates line or runs a ':' command.
func (s *Session) Consume(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ":") {
		return s.command(line)
	}
	expr, err := s.ev.Compile(line)
	if err != nil {
		fmt.Fprintln(s.out, diag.Format(line, err))
		return false
	}
	tv, err := s.ev.EvalIn(context.Background(), expr, s.evalCtx)
	if err != nil {
		fmt.Fprintln(s.out, diag.Format(line, err))
		return false
	}
	s.print(tv.Value)
	return false
}

func (s *Session) command(line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case ":quit", ":q", ":exit":
		return true
	case ":vars":
		names := s.evalCtx.VariableNames()
		if len(names) == 0 {
			fmt.Fprintln(s.out, "no variables")
		}
		for _, name := range names {
			tv, _ := s.evalCtx.LookupVariable(name)
			fmt.Fprintf(s.out, "#%s = ", name)
			s.print(tv.Value)
		}
	case ":unset":
		name := strings.TrimPrefix(strings.TrimSpace(arg), "#")
		if !s.evalCtx.DeleteVariable(name) {
			fmt.Fprintf(s.out, "no variable #%s\n", name)
		}
	case ":root":
		s.print(s.evalCtx.RootContextObject().Value)
	case ":help":
		fmt.Fprintln(s.out, replHelp)
	default:
		fmt.Fprintf(s.out, "unknown command %s (try :help)\n", cmd)
	}
	return false
}

func (s *Session) print(v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	fmt.Fprintln(s.out, string(out))
}

// HandleRepl runs "gospel repl [flags]" and returns the exit code.
func HandleRepl(args []string, cfg Config, env Env) int {
	fs := newFlagSet("repl", env)
	dataPath := fs.String("data", "", "JSON file used as the root object")
	cfg.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	data, err := readData(*dataPath, env.Stdin)
	if err != nil {
		fmt.Fprintf(env.Stderr, "❌ %v\n", err)
		return 1
	}
	fmt.Fprintln(env.Stdout, "gospel REPL, :help for commands")
	if err := Run(NewSession(cfg.Evaluator(env.Stderr), data, env.Stdout)); err != nil && err != liner.ErrPromptAborted {
		fmt.Fprintf(env.Stderr, "❌ %v\n", err)
		return 1
	}
	return 0
}
