package script

import (
	"errors"
	"strings"
	"testing"

	"answerback/cli/internal/rules"
)

const sampleScript = `
[[rule]]
repeat = 2
default = "No."

[[rule.match]]
pattern = "(?i)password"
send = "hunter2"

[[rule]]
forever = true
default_control = "wait"

[[rule.match]]
line = "Continue? [y/n]"
send = "y"

[[rule.match]]
pattern = "fatal"
control = "abort"
`

func TestParse_BuildsOrderedRules(t *testing.T) {
	list, err := Parse([]byte(sampleScript))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(list))
	}

	act, err := rules.Resolve(list[0], "Enter PASSWORD: ")
	if err != nil || act.Kind != rules.ActionSend || act.Text != "hunter2" {
		t.Fatalf("first rule mismatch: %+v err=%v", act, err)
	}
	act, err = rules.Resolve(list[0], "unrelated")
	if err != nil || act.Text != "No." {
		t.Fatalf("default literal mismatch: %+v err=%v", act, err)
	}

	act, err = rules.Resolve(list[1], "output\nContinue? [y/n]\n")
	if err != nil || act.Text != "y" {
		t.Fatalf("line matcher mismatch: %+v err=%v", act, err)
	}
	act, err = rules.Resolve(list[1], "fatal: broken pipe")
	if err != nil || act.Kind != rules.ActionAbort {
		t.Fatalf("abort control mismatch: %+v err=%v", act, err)
	}
	act, err = rules.Resolve(list[1], "quiet")
	if err != nil || act.Kind != rules.ActionWait {
		t.Fatalf("default_control mismatch: %+v err=%v", act, err)
	}
	if list[1].Remaining() != rules.RepeatForever {
		t.Fatalf("forever flag not honored: %d", list[1].Remaining())
	}
}

func TestParse_EmptyScript(t *testing.T) {
	if _, err := Parse([]byte("")); !errors.Is(err, ErrEmptyScript) {
		t.Fatalf("expected ErrEmptyScript, got %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		reason string
	}{
		{
			name:   "no matcher key",
			body:   "[[rule]]\n[[rule.match]]\nsend = \"x\"\n",
			reason: "either pattern or line",
		},
		{
			name:   "both matcher keys",
			body:   "[[rule]]\n[[rule.match]]\npattern = \"a\"\nline = \"b\"\nsend = \"x\"\n",
			reason: "mutually exclusive",
		},
		{
			name:   "no responder key",
			body:   "[[rule]]\n[[rule.match]]\npattern = \"a\"\n",
			reason: "either send or control",
		},
		{
			name:   "bad regexp",
			body:   "[[rule]]\n[[rule.match]]\npattern = \"(\"\nsend = \"x\"\n",
			reason: "pattern",
		},
		{
			name:   "bad control",
			body:   "[[rule]]\n[[rule.match]]\npattern = \"a\"\ncontrol = \"explode\"\n",
			reason: "unknown control",
		},
		{
			name:   "negative repeat",
			body:   "[[rule]]\nrepeat = -1\n[[rule.match]]\npattern = \"a\"\nsend = \"x\"\n",
			reason: "non-negative",
		},
		{
			name:   "repeat with forever",
			body:   "[[rule]]\nrepeat = 1\nforever = true\n[[rule.match]]\npattern = \"a\"\nsend = \"x\"\n",
			reason: "mutually exclusive",
		},
	}
	for _, tc := range cases {
		_, err := Parse([]byte(tc.body))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.reason) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.reason)
		}
	}
}
