package adapter

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitText(t *testing.T) {
	t.Parallel()

	if got := splitText("hola", 10); len(got) != 1 || got[0] != "hola" {
		t.Fatalf("short text: %q", got)
	}

	para := strings.Repeat("é", 30)
	text := strings.Join([]string{para, para, para, para}, "\n\n")
	got := splitText(text, 70)
	if len(got) < 2 {
		t.Fatalf("expected several chunks, got %d", len(got))
	}
	for i, c := range got {
		if n := utf8.RuneCountInString(c); n > 70 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
		if strings.HasPrefix(c, "\n") || strings.HasSuffix(c, "\n") {
			t.Fatalf("chunk %d not trimmed: %q", i, c)
		}
	}
	if strings.ReplaceAll(strings.Join(got, ""), "\n", "") != strings.Repeat("é", 120) {
		t.Fatal("content lost while splitting")
	}

	hard := strings.Repeat("x", 25)
	if got := splitText(hard, 10); len(got) != 3 || got[2] != "xxxxx" {
		t.Fatalf("hard split: %q", got)
	}
}
