package harness

import (
	"bytes"
	"strings"

	"github.com/weftml/weft/internal/directive"
	"github.com/weftml/weft/internal/directives"
	"github.com/weftml/weft/internal/engine"
	"github.com/weftml/weft/internal/serialize"
	"github.com/weftml/weft/internal/source"
)

// Run renders a scenario through the full pipeline and returns the output
// markup.
func Run(s *Scenario) (string, error) {
	reg := directive.NewRegistry()
	directives.Register(reg, s.Prefix)

	var buf bytes.Buffer
	opts := []engine.Option{engine.WithTemplateName(s.Name)}
	if s.Mode == "xml" {
		opts = append(opts, engine.WithMode(engine.ModeXML))
	}
	eng := engine.New(reg, serialize.NewWriter(&buf), opts...)

	for name, value := range s.Context {
		eng.Scopes().Set(name, value)
	}

	if err := source.Feed(strings.NewReader(s.Template), s.Name, eng); err != nil {
		return "", err
	}
	return buf.String(), nil
}
