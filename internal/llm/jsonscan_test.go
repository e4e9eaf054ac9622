package llm

import "testing"

func TestExtractObject(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"bare object":    {`{"a": 1}`, `{"a": 1}`},
		"with prose":     {`Sure, here you go: {"a": 1} hope that helps`, `{"a": 1}`},
		"fenced":         {"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		"nested":         {`{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		"brace inside string": {`{"a": "}"}`, `{"a": "}"}`},
		"none":           {"no json here", ""},
		"empty":          {"", ""},
	}
	for name, tc := range cases {
		if got := ExtractObject(tc.in); got != tc.want {
			t.Errorf("%s: got %q, want %q", name, got, tc.want)
		}
	}
}

func TestExtractArray(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"bare array":  {`[1, 2]`, `[1, 2]`},
		"with prose":  {`Findings below:\n[{"t": "x"}]\nDone.`, `[{"t": "x"}]`},
		"fenced":      {"```json\n[{\"t\": \"x\"}]\n```", `[{"t": "x"}]`},
		"empty array": {`[]`, `[]`},
		"nested":      {`[[1], [2]]`, `[[1], [2]]`},
		"bracket inside string": {`[{"q": "see [3]"}]`, `[{"q": "see [3]"}]`},
		"none":        {"nothing structured", ""},
	}
	for name, tc := range cases {
		if got := ExtractArray(tc.in); got != tc.want {
			t.Errorf("%s: got %q, want %q", name, got, tc.want)
		}
	}
}
