package normalize

import (
	"errors"
	"strings"
	"testing"
)

func TestCodeBlockProtectionFencedBlock(t *testing.T) {
	ctx := NewContext()
	in := "before\n```go\nfunc main() {}\n```\nafter"

	got := CodeBlockProtection{}.Action(in, ctx)

	if got != "before\n\x00CODE_BLOCK_0\x00\nafter" {
		t.Fatalf("unexpected text: %q", got)
	}
	if len(ctx.CodeBlocks) != 1 {
		t.Fatalf("expected 1 stashed block, got %d", len(ctx.CodeBlocks))
	}
	if ctx.CodeBlocks[0] != "```go\nfunc main() {}\n```" {
		t.Errorf("block content mangled: %q", ctx.CodeBlocks[0])
	}
}

func TestCodeBlockProtectionInlineCode(t *testing.T) {
	ctx := NewContext()
	got := CodeBlockProtection{}.Action("run `go vet` then `go build`", ctx)

	if strings.Contains(got, "`") {
		t.Fatalf("backticks leaked: %q", got)
	}
	if len(ctx.CodeBlocks) != 2 {
		t.Fatalf("expected 2 stashed spans, got %d", len(ctx.CodeBlocks))
	}
	if ctx.CodeBlocks[0] != "`go vet`" || ctx.CodeBlocks[1] != "`go build`" {
		t.Errorf("spans mangled: %#v", ctx.CodeBlocks)
	}
}

func TestCodeBlockProtectionExtraBackticks(t *testing.T) {
	ctx := NewContext()
	in := "````python\nprint('x')\n````"

	CodeBlockProtection{}.Action(in, ctx)

	if len(ctx.CodeBlocks) != 1 {
		t.Fatalf("expected 1 stashed block, got %d", len(ctx.CodeBlocks))
	}
	if ctx.CodeBlocks[0] != "```python\nprint('x')\n```" {
		t.Errorf("fence not reduced to three backticks: %q", ctx.CodeBlocks[0])
	}
}

func TestCodeBlockProtectionMultipleFences(t *testing.T) {
	ctx := NewContext()
	in := "```a\none\n```\ntext\n```b\ntwo\n```"

	got := CodeBlockProtection{}.Action(in, ctx)

	if len(ctx.CodeBlocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(ctx.CodeBlocks))
	}
	if got != "\x00CODE_BLOCK_0\x00\ntext\n\x00CODE_BLOCK_1\x00" {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestCodeBlockRoundTrip(t *testing.T) {
	ctx := NewContext()
	in := "intro\n```sh\nls -la   # spacing  kept\n```\nand `in--line` too"

	protected := applyPassWithContext(t, CodeBlockProtection{}, in, ctx)
	restored := applyPassWithContext(t, CodeBlockRestoration{}, protected, ctx)

	if restored != in {
		t.Fatalf("round trip changed text:\n in: %q\nout: %q", in, restored)
	}
}

func TestCodeBlockProtectionUnterminatedFenceStrict(t *testing.T) {
	r := NewRunner([]Pass{CodeBlockProtection{}}, RunnerConfig{Strict: true})

	_, err := r.Run("```python\nnever closed", NewContext())
	var pcErr *PostConditionError
	if !errors.As(err, &pcErr) {
		t.Fatalf("expected PostConditionError for unterminated fence, got %v", err)
	}
	if pcErr.Pass != "CodeBlockProtection" {
		t.Errorf("wrong pass: %q", pcErr.Pass)
	}
}

func TestCodeBlockRestorationSkippedWithoutBlocks(t *testing.T) {
	if (CodeBlockRestoration{}).PreCondition("anything", NewContext()) {
		t.Error("restoration must be skipped when nothing was stashed")
	}
}

func applyPassWithContext(t *testing.T, p Pass, text string, ctx *Context) string {
	t.Helper()
	got, err := NewRunner([]Pass{p}, RunnerConfig{Strict: true}).Run(text, ctx)
	if err != nil {
		t.Fatalf("%s failed: %v", p.Name(), err)
	}
	return got
}
