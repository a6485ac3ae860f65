package git

import "testing"

func TestFormatCommitMessage(t *testing.T) {
	tests := []struct {
		name    string
		ctype   string
		scope   string
		subject string
		body    string
		want    string
	}{
		{
			name:    "simple",
			ctype:   "feat",
			subject: "add sheet",
			want:    "feat: add sheet\n\nPowered-by: Sticky",
		},
		{
			name:    "with scope",
			ctype:   "fix",
			scope:   "sheet",
			subject: "restore notes",
			want:    "fix(sheet): restore notes\n\nPowered-by: Sticky",
		},
		{
			name:    "with body",
			ctype:   "",
			subject: "clear store",
			body:    "  all sheets removed \n",
			want:    "chore: clear store\n\nall sheets removed\n\nPowered-by: Sticky",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCommitMessage(tt.ctype, tt.scope, tt.subject, tt.body)
			if got != tt.want {
				t.Errorf("FormatCommitMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppendFooter(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"plain", "simple message", "simple message\n\nPowered-by: Sticky"},
		{"trailing newline", "msg\n", "msg\n\nPowered-by: Sticky"},
		{"already present", "msg\n\nPowered-by: Sticky", "msg\n\nPowered-by: Sticky"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AppendFooter(tt.msg); got != tt.want {
				t.Errorf("AppendFooter() = %q, want %q", got, tt.want)
			}
		})
	}
}
