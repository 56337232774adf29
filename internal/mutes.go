package internal

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/PaesslerAG/jsonpath"

	"gitcord/pkg/payload"
)

// MuteRule drops an otherwise-accepted event when its expression
// matches. Variables use govaluate's bracket syntax for dotted payload
// paths, e.g. `[object_attributes.state] == "opened"`; names starting
// with `$.` are resolved as JSONPath against the whole document, e.g.
// `[$.commits[0].author.name] == "ci-bot"`.
type MuteRule struct {
	When string `yaml:"when"`
}

type compiledMute struct {
	when string
	expr *govaluate.EvaluableExpression
}

// MuteEngine evaluates mute rules against inbound payloads. It runs
// after the built-in worthiness filters and can only drop events, never
// resurrect rejected ones.
type MuteEngine struct {
	rules  []compiledMute
	logger *log.Logger
}

// NewMuteEngine compiles the configured rules. An invalid expression is
// a startup error.
func NewMuteEngine(rules []MuteRule, logger *log.Logger) (*MuteEngine, error) {
	if logger == nil {
		logger = log.Default()
	}
	compiled := make([]compiledMute, 0, len(rules))
	for _, rule := range rules {
		expr, err := govaluate.NewEvaluableExpression(rule.When)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledMute{when: rule.When, expr: expr})
	}
	return &MuteEngine{rules: compiled, logger: logger}, nil
}

// Muted reports whether any rule matches the payload. Evaluation errors
// (missing fields, type mismatches) are logged and treated as no-match.
func (m *MuteEngine) Muted(tree payload.Tree) bool {
	if m == nil || len(m.rules) == 0 {
		return false
	}

	params := &muteParameters{flat: tree.Flatten(), root: tree.Root()}
	for _, rule := range m.rules {
		result, err := rule.expr.Eval(params)
		if err != nil {
			m.logger.Printf("mute rule %q eval failed: %v", rule.when, err)
			continue
		}
		if matched, _ := result.(bool); matched {
			return true
		}
	}
	return false
}

// muteParameters resolves expression variables. Plain names come from
// the flattened payload; `$.`-prefixed names run through JSONPath on the
// root document.
type muteParameters struct {
	flat map[string]interface{}
	root interface{}
}

func (p *muteParameters) Get(name string) (interface{}, error) {
	if strings.HasPrefix(name, "$.") || name == "$" {
		value, err := jsonpath.Get(name, p.root)
		if err != nil {
			// Absent path: no value, no match.
			return nil, nil
		}
		return normalizeValue(value), nil
	}
	value, ok := p.flat[name]
	if !ok {
		return nil, nil
	}
	return normalizeValue(value), nil
}

func normalizeValue(value interface{}) interface{} {
	if number, ok := value.(json.Number); ok {
		if f, err := number.Float64(); err == nil {
			return f
		}
		return number.String()
	}
	return value
}
