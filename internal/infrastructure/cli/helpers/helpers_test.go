package helpers

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doeshing/nixsay/internal/domain"
)

func TestTopCounts(t *testing.T) {
	freq := map[string]int{"install": 4, "search": 4, "rollback": 1, "clean": 2}

	got := TopCounts(freq, 3)
	assert.Equal(t, []CountStatistic{
		{Key: "install", Count: 4},
		{Key: "search", Count: 4},
		{Key: "clean", Count: 2},
	}, got)
	assert.Len(t, TopCounts(freq, 0), 4)
}

func TestCalculateSuccessRate(t *testing.T) {
	assert.Equal(t, 0.0, CalculateSuccessRate(3, 0))
	assert.Equal(t, 75.0, CalculateSuccessRate(3, 4))
}

func TestDeriveUndoHintsOnlyForSuccesses(t *testing.T) {
	records := []domain.FeedbackRecord{
		{Action: domain.ActionInstall, Success: true},
		{Action: domain.ActionInstall, Success: true},
		{Action: domain.ActionClean, Success: false},
		{Action: domain.ActionSearch, Success: true},
	}
	hints := DeriveUndoHints(records)
	assert.Equal(t, []string{undoHints[domain.ActionInstall]}, hints)
}

func TestReadLineKeepsPartialLineAtEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := ReadLine(&out, bufio.NewReader(strings.NewReader("  yes")), "Continue")
	assert.NoError(t, err)
	assert.Equal(t, "yes", got)
	assert.Equal(t, "Continue: ", out.String())

	_, err = ReadLine(&out, bufio.NewReader(strings.NewReader("")), "Continue")
	assert.Error(t, err)
}

func TestPromptForYesNo(t *testing.T) {
	tests := []struct {
		input    string
		def      bool
		want     bool
		wantHint string
	}{
		{input: "y\n", def: false, want: true, wantHint: "[y/N]"},
		{input: "YES\n", def: false, want: true, wantHint: "[y/N]"},
		{input: "nope\n", def: true, want: false, wantHint: "[Y/n]"},
		{input: "\n", def: true, want: true, wantHint: "[Y/n]"},
		{input: "", def: false, want: false, wantHint: "[y/N]"},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := PromptForYesNo(&out, bufio.NewReader(strings.NewReader(tt.input)), "Apply", tt.def)
		if got != tt.want {
			t.Errorf("PromptForYesNo(%q, %v) = %v, want %v", tt.input, tt.def, got, tt.want)
		}
		if !strings.Contains(out.String(), tt.wantHint) {
			t.Errorf("prompt %q missing %s", out.String(), tt.wantHint)
		}
	}
}
