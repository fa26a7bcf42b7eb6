package engine

import "testing"

func TestCleanCaption(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello world", "Hello world"},
		{"it&#39;s &amp; that", "it's & that"},
		{"<font color=\"#E5E5E5\">colored</font> text", "colored text"},
		{"&lt;b&gt;escaped tags&lt;/b&gt;", "escaped tags"},
		{"<i>Italic</i>", "Italic"},
		{"  spaced  ", "  spaced  "},
	}
	for _, tt := range tests {
		if got := CleanCaption(tt.in); got != tt.want {
			t.Errorf("CleanCaption(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet([]byte("short"), 10); got != "short" {
		t.Errorf("Snippet(short) = %q", got)
	}
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	got := Snippet(long, 100)
	if len(got) > 103 || got[len(got)-3:] != "..." {
		t.Errorf("Snippet(long) = %q (len %d)", got, len(got))
	}
}
