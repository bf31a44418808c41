package evaluator

import (
	"log/slog"

	"github.com/sandrolain/gospel/pkg/types"
)

// tracingScope logs every namespace and active-object access of an
// evaluation running with WithDebug.
type tracingScope struct {
	*EvalContext
	logger *slog.Logger
}

func (s *tracingScope) LookupVariable(name string) (types.TypedValue, bool) {
	tv, ok := s.EvalContext.LookupVariable(name)
	s.logger.Debug("variable lookup", "name", name, "found", ok, "type", tv.Type.String())
	return tv, ok
}

func (s *tracingScope) SetVariable(name string, value types.TypedValue) error {
	err := s.EvalContext.SetVariable(name, value)
	s.logger.Debug("variable set", "name", name, "type", value.Type.String(), "error", err)
	return err
}

func (s *tracingScope) PushActiveContextObject(value types.TypedValue) {
	s.EvalContext.PushActiveContextObject(value)
	s.logger.Debug("push active object", "type", value.Type.String(), "depth", s.Depth())
}

func (s *tracingScope) PopActiveContextObject() {
	s.EvalContext.PopActiveContextObject()
	s.logger.Debug("pop active object", "depth", s.Depth())
}
