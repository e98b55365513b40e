// Package script loads rule lists from TOML files. A script covers the
// file-expressible subset of the rule model: regexp and exact-line
// matchers with literal or control responders. Predicate and computed
// responders are API-only.
//
//	[[rule]]
//	repeat = 2
//	default = "No."
//
//	[[rule.match]]
//	pattern = "(?i)password"
//	send = "hunter2"
//
//	[[rule.match]]
//	line = "Continue? [y/n]"
//	control = "skip"
package script

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"answerback/cli/internal/rules"
)

type File struct {
	Rule []RuleSpec `toml:"rule"`
}

type RuleSpec struct {
	Repeat         *int        `toml:"repeat"`
	Forever        bool        `toml:"forever"`
	Default        *string     `toml:"default"`
	DefaultControl string      `toml:"default_control"`
	Match          []MatchSpec `toml:"match"`
}

type MatchSpec struct {
	Pattern string  `toml:"pattern"`
	Line    string  `toml:"line"`
	Send    *string `toml:"send"`
	Control string  `toml:"control"`
}

var ErrEmptyScript = errors.New("script defines no rules")

// Load reads and parses a rule script from disk.
func Load(path string) ([]*rules.Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	list, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return list, nil
}

// Parse builds the ordered rule list from TOML bytes.
func Parse(b []byte) ([]*rules.Rule, error) {
	var file File
	if err := toml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("parse toml: %w", err)
	}
	if len(file.Rule) == 0 {
		return nil, ErrEmptyScript
	}

	list := make([]*rules.Rule, 0, len(file.Rule))
	for i, spec := range file.Rule {
		rule, err := buildRule(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		list = append(list, rule)
	}
	return list, nil
}

func buildRule(spec RuleSpec) (*rules.Rule, error) {
	opts := make([]rules.Option, 0, len(spec.Match)+2)

	for j, m := range spec.Match {
		opt, err := buildMatch(m)
		if err != nil {
			return nil, fmt.Errorf("match %d: %w", j+1, err)
		}
		opts = append(opts, opt)
	}

	if spec.Default != nil && spec.DefaultControl != "" {
		return nil, errors.New("default and default_control are mutually exclusive")
	}
	if spec.Default != nil {
		opts = append(opts, rules.Default(rules.Reply(*spec.Default)))
	}
	if spec.DefaultControl != "" {
		ctrl, err := parseControl(spec.DefaultControl)
		if err != nil {
			return nil, err
		}
		opts = append(opts, rules.Default(rules.Do(ctrl)))
	}

	if spec.Forever {
		if spec.Repeat != nil {
			return nil, errors.New("repeat and forever are mutually exclusive")
		}
		opts = append(opts, rules.Forever())
	} else if spec.Repeat != nil {
		if *spec.Repeat < 0 {
			return nil, fmt.Errorf("repeat must be non-negative, got %d", *spec.Repeat)
		}
		opts = append(opts, rules.Repeat(*spec.Repeat))
	}

	return rules.New(opts...), nil
}

func buildMatch(m MatchSpec) (rules.Option, error) {
	var matcher rules.Matcher
	switch {
	case m.Pattern != "" && m.Line != "":
		return nil, errors.New("pattern and line are mutually exclusive")
	case m.Pattern != "":
		re, err := regexp.Compile(m.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		matcher = rules.Regexp(re)
	case m.Line != "":
		matcher = rules.LastLine(m.Line)
	default:
		return nil, errors.New("either pattern or line is required")
	}

	switch {
	case m.Send != nil && m.Control != "":
		return nil, errors.New("send and control are mutually exclusive")
	case m.Send != nil:
		return rules.On(matcher, rules.Reply(*m.Send)), nil
	case m.Control != "":
		ctrl, err := parseControl(m.Control)
		if err != nil {
			return nil, err
		}
		return rules.On(matcher, rules.Do(ctrl)), nil
	default:
		return nil, errors.New("either send or control is required")
	}
}

func parseControl(name string) (rules.Control, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "wait":
		return rules.Wait, nil
	case "skip":
		return rules.Skip, nil
	case "abort":
		return rules.Abort, nil
	}
	return 0, fmt.Errorf("unknown control %q (want wait, skip or abort)", name)
}
