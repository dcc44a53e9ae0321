package ffmpeg

import (
	"strings"
	"testing"

	"github.com/clipforge/clipforge/internal/jobs"
)

func TestForceStyle_Defaults(t *testing.T) {
	got := ForceStyle(jobs.DefaultStyle())

	if !strings.Contains(got, "FontSize=24") {
		t.Errorf("missing font size: %s", got)
	}
	// White text, fully opaque.
	if !strings.Contains(got, "PrimaryColour=&H00FFFFFF") {
		t.Errorf("primary colour wrong: %s", got)
	}
	// Black background at 80% opacity: alpha = 255-204 = 51 = 0x33.
	if !strings.Contains(got, "BackColour=&H33000000") {
		t.Errorf("back colour wrong: %s", got)
	}
	if !strings.Contains(got, "Alignment=2") {
		t.Errorf("missing alignment: %s", got)
	}
}

func TestForceStyle_ZeroFontSizeFallsBack(t *testing.T) {
	got := ForceStyle(jobs.SubtitleStyle{FontColor: "#FFFFFF", BackgroundColor: "#000000", Opacity: 100})
	if !strings.Contains(got, "FontSize=24") {
		t.Errorf("zero font size should fall back to 24: %s", got)
	}
}

func TestAssColor_ChannelOrderInverted(t *testing.T) {
	// libass colours are &HAABBGGRR, so red #FF0000 becomes 0000FF.
	if got := assColor("#FF0000", 100); got != "&H000000FF" {
		t.Errorf("assColor(#FF0000) = %s, want &H000000FF", got)
	}
	if got := assColor("#FF3B30", 100); got != "&H00303BFF" {
		t.Errorf("assColor(#FF3B30) = %s, want &H00303BFF", got)
	}
}

func TestAssColor_InvalidHexFallsBack(t *testing.T) {
	if got := assColor("nope", 100); got != "&H00FFFFFF" {
		t.Errorf("assColor(nope) = %s, want white", got)
	}
}

func TestAssColor_OpacityOutOfRangeIsOpaque(t *testing.T) {
	if got := assColor("#000000", 0); got != "&H00000000" {
		t.Errorf("assColor opacity 0 = %s, want opaque", got)
	}
	if got := assColor("#000000", 150); got != "&H00000000" {
		t.Errorf("assColor opacity 150 = %s, want opaque", got)
	}
}

func TestFmtSeconds(t *testing.T) {
	if got := fmtSeconds(12.5); got != "12.500" {
		t.Errorf("fmtSeconds(12.5) = %s", got)
	}
	if got := fmtSeconds(0); got != "0.000" {
		t.Errorf("fmtSeconds(0) = %s", got)
	}
}

func TestEscapeFilterPath(t *testing.T) {
	if got := escapeFilterPath(`C:\videos\a.srt`); got != `C\:\\videos\\a.srt` {
		t.Errorf("escapeFilterPath = %s", got)
	}
}
