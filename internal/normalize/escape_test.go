package normalize

import "testing"

func TestEscapeSequence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "escaped bold markers restored",
			in:   `\*\*important\*\*`,
			want: "**important**",
		},
		{
			name: "smart quotes straightened",
			in:   "she said “hello” twice",
			want: `she said "hello" twice`,
		},
		{
			name: "escaped dot in heading unescaped",
			in:   `## 1\. Introduction`,
			want: "## 1. Introduction",
		},
		{
			name: "multiple escaped dots in heading converge",
			in:   `# 1\.2\. Details`,
			want: "# 1.2. Details",
		},
		{
			name: "escaped brackets in heading unescaped",
			in:   `### Part \[draft\]`,
			want: "### Part [draft]",
		},
		{
			name: "escaped dot outside heading untouched",
			in:   `1\. not a heading`,
			want: `1\. not a heading`,
		},
		{
			name: "escaped dot on later line needs its own heading",
			in:   "## A\ntext 1\\. more",
			want: "## A\ntext 1\\. more",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyPass(t, EscapeSequence{}, tt.in)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeSequencePostCondition(t *testing.T) {
	p := EscapeSequence{}
	if p.PostCondition("left “ over", nil) {
		t.Error("post-condition must reject remaining smart quote")
	}
	if !p.PostCondition(`all "straight" now`, nil) {
		t.Error("post-condition must accept straight quotes")
	}
}
