// Package subtitles implements the SRT subtitle format: parsing, rendering
// and construction from transcripts.
package subtitles

import (
	"fmt"
	"strconv"
	"strings"
)

// Cue is one numbered SRT entry.
type Cue struct {
	Start float64 // seconds
	End   float64
	Text  string
}

// SRT is an ordered list of cues. Indexes are assigned at render time.
type SRT struct {
	Cues []Cue
}

// Render produces SRT text: sequential 1-based index, a
// `HH:MM:SS,mmm --> HH:MM:SS,mmm` timing line, the text body and a blank
// separator line.
func (s SRT) Render() string {
	var b strings.Builder
	for i, c := range s.Cues {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("\n")
		b.WriteString(FormatTimestamp(c.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(c.End))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(c.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// Parse reads SRT text into cues. It tolerates CRLF line endings and
// multi-line cue bodies, and rejects malformed timing lines.
func Parse(input string) (SRT, error) {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	blocks := strings.Split(strings.TrimSpace(input), "\n\n")

	var out SRT
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return SRT{}, fmt.Errorf("malformed SRT block: %q", truncate(block, 80))
		}

		// First line is the numeric index; it is ignored and regenerated
		// on render.
		if _, err := strconv.Atoi(strings.TrimSpace(lines[0])); err != nil {
			return SRT{}, fmt.Errorf("malformed SRT index line: %q", lines[0])
		}

		start, end, err := parseTimingLine(lines[1])
		if err != nil {
			return SRT{}, err
		}

		text := ""
		if len(lines) > 2 {
			text = strings.Join(lines[2:], "\n")
		}
		out.Cues = append(out.Cues, Cue{Start: start, End: end, Text: text})
	}

	if len(out.Cues) == 0 {
		return SRT{}, fmt.Errorf("no cues found")
	}
	return out, nil
}

// Validate reports whether the input parses as SRT.
func Validate(input string) error {
	_, err := Parse(input)
	return err
}

func parseTimingLine(line string) (float64, float64, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed SRT timing line: %q", line)
	}
	start, err := ParseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm.
func FormatTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	ms := int64(sec*1000 + 0.5)
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseTimestamp reads an HH:MM:SS,mmm timestamp into seconds.
func ParseTimestamp(ts string) (float64, error) {
	var h, m, s, ms int
	if _, err := fmt.Sscanf(ts, "%d:%d:%d,%d", &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("malformed SRT timestamp %q: %w", ts, err)
	}
	if m > 59 || s > 59 || ms > 999 || h < 0 || m < 0 || s < 0 || ms < 0 {
		return 0, fmt.Errorf("malformed SRT timestamp %q", ts)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
