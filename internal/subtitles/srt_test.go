package subtitles

import (
	"math"
	"strings"
	"testing"
)

func TestRenderParse_RoundTrip(t *testing.T) {
	in := SRT{Cues: []Cue{
		{Start: 0, End: 2.5, Text: "hello there"},
		{Start: 2.5, End: 7.25, Text: "two lines\nof text"},
		{Start: 61.001, End: 3661.999, Text: "last cue"},
	}}

	out, err := Parse(in.Render())
	if err != nil {
		t.Fatalf("Parse(Render()) error = %v", err)
	}
	if len(out.Cues) != len(in.Cues) {
		t.Fatalf("cue count = %d, want %d", len(out.Cues), len(in.Cues))
	}
	for i := range in.Cues {
		if math.Abs(out.Cues[i].Start-in.Cues[i].Start) > 0.001 {
			t.Errorf("cue %d start = %f, want %f", i, out.Cues[i].Start, in.Cues[i].Start)
		}
		if math.Abs(out.Cues[i].End-in.Cues[i].End) > 0.001 {
			t.Errorf("cue %d end = %f, want %f", i, out.Cues[i].End, in.Cues[i].End)
		}
		if out.Cues[i].Text != in.Cues[i].Text {
			t.Errorf("cue %d text = %q, want %q", i, out.Cues[i].Text, in.Cues[i].Text)
		}
	}
}

func TestRender_SequentialIndexes(t *testing.T) {
	s := SRT{Cues: []Cue{
		{Start: 0, End: 1, Text: "a"},
		{Start: 1, End: 2, Text: "b"},
	}}
	text := s.Render()

	lines := strings.Split(text, "\n")
	if lines[0] != "1" {
		t.Errorf("first index line = %q, want 1", lines[0])
	}
	if !strings.Contains(text, "\n2\n00:00:01,000 --> 00:00:02,000") {
		t.Errorf("second block not found in:\n%s", text)
	}
}

func TestParse_CRLFInput(t *testing.T) {
	in := "1\r\n00:00:00,000 --> 00:00:01,500\r\nfirst\r\n\r\n2\r\n00:00:01,500 --> 00:00:03,000\r\nsecond\r\n"
	out, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(out.Cues) != 2 {
		t.Fatalf("cue count = %d, want 2", len(out.Cues))
	}
	if out.Cues[1].Text != "second" {
		t.Errorf("second cue text = %q", out.Cues[1].Text)
	}
}

func TestParse_RejectsMalformedTiming(t *testing.T) {
	in := "1\n00:00:00.000 -> 00:00:01.000\ntext\n"
	if _, err := Parse(in); err == nil {
		t.Fatal("Parse() should reject malformed timing line")
	}
}

func TestParse_RejectsNonNumericIndex(t *testing.T) {
	in := "one\n00:00:00,000 --> 00:00:01,000\ntext\n"
	if _, err := Parse(in); err == nil {
		t.Fatal("Parse() should reject non-numeric index line")
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatal("Parse() should fail on empty input")
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		sec  float64
		want string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.001, "00:01:01,001"},
		{3661.999, "01:01:01,999"},
		{-5, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.sec); got != tc.want {
			t.Errorf("FormatTimestamp(%f) = %s, want %s", tc.sec, got, tc.want)
		}
	}
}

func TestParseTimestamp_RejectsOutOfRange(t *testing.T) {
	for _, ts := range []string{"00:61:00,000", "00:00:61,000"} {
		if _, err := ParseTimestamp(ts); err == nil {
			t.Errorf("ParseTimestamp(%s) should fail", ts)
		}
	}
}
