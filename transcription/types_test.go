package transcription

import "testing"

func TestResponseTextOr(t *testing.T) {
	empty := ""
	hello := "hello"

	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{"nil response", nil, "fallback"},
		{"missing text", &Response{}, "fallback"},
		{"empty text is kept", &Response{Text: &empty}, ""},
		{"text", &Response{Text: &hello}, "hello"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.resp.TextOr("fallback"); got != tc.want {
				t.Errorf("TextOr() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDurationFromSegments(t *testing.T) {
	if DurationFromSegments(nil) != 0 {
		t.Error("expected zero duration without segments")
	}
	segs := []Segment{{Start: 0, End: 1.5}, {Start: 1.5, End: 4.25}}
	if got := DurationFromSegments(segs); got != 4.25 {
		t.Errorf("expected 4.25, got %v", got)
	}
}
