package security

import "testing"

func TestSanitizeName_PlainTextPassesThrough(t *testing.T) {
	s := NewProfileSanitizer()

	if got := s.SanitizeName("VexedElm"); got != "VexedElm" {
		t.Errorf("SanitizeName = %q, want %q", got, "VexedElm")
	}
}

func TestSanitizeName_StripsAllTags(t *testing.T) {
	s := NewProfileSanitizer()

	tests := []struct {
		in   string
		want string
	}{
		{`<script>alert(1)</script>Elm`, "Elm"},
		{`<b>Elm</b>`, "Elm"},
		{`<img src=x onerror=alert(1)>Elm`, "Elm"},
		{`Elm<iframe src="https://evil.example"></iframe>`, "Elm"},
	}

	for _, tc := range tests {
		if got := s.SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeName_TrimsWhitespace(t *testing.T) {
	s := NewProfileSanitizer()

	if got := s.SanitizeName("  Elm  "); got != "Elm" {
		t.Errorf("SanitizeName = %q, want %q", got, "Elm")
	}
}

func TestSanitizeName_EmptyInput(t *testing.T) {
	s := NewProfileSanitizer()

	if got := s.SanitizeName(""); got != "" {
		t.Errorf("SanitizeName(\"\") = %q, want \"\"", got)
	}
}

func TestSanitizeName_Idempotent(t *testing.T) {
	s := NewProfileSanitizer()

	in := `<b>Elm</b> the <script>x</script>Seller`
	once := s.SanitizeName(in)
	twice := s.SanitizeName(once)
	if once != twice {
		t.Errorf("サニタイズは冪等であるべき: once=%q twice=%q", once, twice)
	}
}
