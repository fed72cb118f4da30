package sanitize

import (
	"testing"
)

func TestPlainText(t *testing.T) {
	cases := []struct {
		name   string
		markup string
		want   string
	}{
		{"plain passthrough", "Read chapter 4", "Read chapter 4"},
		{"tags stripped", "<p><strong>Maths</strong> worksheet</p>", "Maths worksheet"},
		{"br becomes space", "page 1<br>page 2<br/>page 3", "page 1 page 2 page 3"},
		{"entities decoded", "Romeo &amp; Juliet &lt;Act 2&gt;", "Romeo & Juliet <Act 2>"},
		{"double-encoded entities", "Fish &amp;amp; chips", "Fish & chips"},
		{"nbsp collapsed", "due&nbsp;&nbsp;Friday", "due Friday"},
		{"whitespace collapsed and trimmed", "  lots \n of\t space  ", "lots of space"},
		{"empty", "", ""},
		{"only markup", "<div><br></div>", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PlainText(tc.markup); got != tc.want {
				t.Errorf("PlainText(%q) = %q, want %q", tc.markup, got, tc.want)
			}
		})
	}
}
