package palette

import (
	"strings"
	"testing"
)

func TestRofiFormatItem_UsesSingleNullSeparator(t *testing.T) {
	b := NewRofiBackend().(*dmenuLikeBackend)

	out := b.formatItem(Item{
		Label: "Inbox",
		Icon:  "/cache/icons/abc",
		Info:  "0x1a",
		Meta:  "thunderbird",
	})

	if got := strings.Count(out, "\x00"); got != 1 {
		t.Fatalf("expected exactly 1 NUL separator, got %d (%q)", got, out)
	}
	if !strings.Contains(out, "\x00icon\x1f/cache/icons/abc") {
		t.Fatalf("expected icon as first property, got %q", out)
	}
	if !strings.Contains(out, "info\x1f0x1a") || !strings.Contains(out, "meta\x1fthunderbird") {
		t.Fatalf("expected info/meta attributes, got %q", out)
	}
}

func TestRofiFormatItem_EscapesMarkupAndDimsSubtext(t *testing.T) {
	b := NewRofiBackend().(*dmenuLikeBackend)

	out := b.formatItem(Item{Label: "a <b> & c", Subtext: "dev"})

	if !strings.HasPrefix(out, "a &lt;b&gt; &amp; c ") {
		t.Fatalf("expected escaped title, got %q", out)
	}
	if !strings.Contains(out, "<span foreground='#888888'><small>dev</small></span>") {
		t.Fatalf("expected dim workspace, got %q", out)
	}
}

func TestFormatItem_PlainBackends(t *testing.T) {
	item := Item{Label: "Inbox\n", Subtext: "mail", Icon: "/icons/x"}

	if got := NewDmenuBackend().(*dmenuLikeBackend).formatItem(item); got != "Inbox [mail]" {
		t.Fatalf("unexpected dmenu row %q", got)
	}
	if got := NewWofiBackend().(*dmenuLikeBackend).formatItem(item); got != "img:/icons/x:text:Inbox [mail]" {
		t.Fatalf("unexpected wofi row %q", got)
	}
	if got := NewFuzzelBackend().(*dmenuLikeBackend).formatItem(item); got != "Inbox [mail]\x00icon\x1f/icons/x" {
		t.Fatalf("unexpected fuzzel row %q", got)
	}
}

func TestRofiBuildArgs_UsesIndexFormatAndCustomKeys(t *testing.T) {
	b := NewRofiBackend().(*dmenuLikeBackend)

	args := b.buildArgs("prompt", "message")

	if !containsArgs(args, "-format", "i") {
		t.Fatalf("expected -format i in args, got %v", args)
	}
	if !containsArg(args, "-no-custom") {
		t.Fatalf("expected -no-custom in args, got %v", args)
	}
	if !containsArgs(args, "-kb-custom-1", "Alt+Return") || !containsArgs(args, "-kb-custom-2", "Alt+d") {
		t.Fatalf("expected custom key bindings in args, got %v", args)
	}
	if !containsArgs(args, "-mesg", "message") {
		t.Fatalf("expected -mesg in args, got %v", args)
	}
	if containsArgs(args, "-matching", "fuzzy") {
		t.Fatalf("expected no fuzzy matching by default, got %v", args)
	}
}

func TestRofiBuildArgs_FuzzyMatching(t *testing.T) {
	b := NewRofiBackend().(*dmenuLikeBackend)
	b.SetFuzzyMatching(true)

	args := b.buildArgs("prompt", "")

	if !containsArgs(args, "-matching", "fuzzy") {
		t.Fatalf("expected -matching fuzzy in args, got %v", args)
	}
	if containsArg(args, "-mesg") {
		t.Fatalf("expected no message bar without a message, got %v", args)
	}
}

func TestRofiParseSelection_Index(t *testing.T) {
	b := NewRofiBackend().(*dmenuLikeBackend)
	items := []Item{{Label: "a"}, {Label: "b"}}

	got, err := b.parseSelection("1", items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
	if _, err := b.parseSelection("7", items); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestDmenuParseSelection_ByLabel(t *testing.T) {
	b := NewDmenuBackend().(*dmenuLikeBackend)
	items := []Item{{Label: "a", Subtext: "one"}, {Label: "b", Subtext: "two"}}

	got, err := b.parseSelection("b [two]", items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
	if _, err := b.parseSelection("zzz", items); err == nil {
		t.Fatalf("expected unknown selection error")
	}
}

func TestWofiParseSelection_StripsImagePrefix(t *testing.T) {
	b := NewWofiBackend().(*dmenuLikeBackend)
	items := []Item{{Label: "a"}, {Label: "b", Subtext: "ws"}}

	got, err := b.parseSelection("img:/icons/x:text:b [ws]", items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected index 1, got %d", got)
	}
}

func TestFormatInput_DisambiguatesDuplicateLabels(t *testing.T) {
	b := NewDmenuBackend().(*dmenuLikeBackend)
	items := []Item{
		{Label: "Dup"},
		{Label: "Dup"},
		{Label: "Dup", Subtext: "other"},
	}

	_ = b.formatInput(items)
	if items[0].Label != "Dup" {
		t.Fatalf("expected first label unchanged, got %q", items[0].Label)
	}
	if items[1].Label != "Dup (2)" {
		t.Fatalf("expected second label disambiguated, got %q", items[1].Label)
	}
	if items[2].Label != "Dup" {
		t.Fatalf("expected label on another workspace unchanged, got %q", items[2].Label)
	}
}

func TestFormatInput_IndexBackendsDoNotDisambiguateDuplicateLabels(t *testing.T) {
	b := NewRofiBackend().(*dmenuLikeBackend)
	items := []Item{{Label: "Dup"}, {Label: "Dup"}}

	_ = b.formatInput(items)
	if items[0].Label != "Dup" || items[1].Label != "Dup" {
		t.Fatalf("expected labels unchanged for index backend, got %#v", items)
	}
}

func TestNewBackend_UnknownName(t *testing.T) {
	if _, err := NewBackend("kitty"); err == nil || !strings.Contains(err.Error(), "unknown palette backend") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func containsArg(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func containsArgs(args []string, a string, b string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == a && args[i+1] == b {
			return true
		}
	}
	return false
}
