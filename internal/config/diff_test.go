package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSummarizeChange(t *testing.T) {
	t.Parallel()
	off := false
	tests := []struct {
		name        string
		oldF, newF  *File
		wantChanged []string
		wantRestart []string
		wantFields  int
	}{
		{name: "identical", oldF: &File{}, newF: &File{}},
		{
			name:        "logging only",
			oldF:        &File{},
			newF:        &File{Logging: LoggingConfig{Level: "debug"}},
			wantChanged: []string{"logging"},
			wantFields:  5,
		},
		{
			name:        "restart sections",
			oldF:        &File{Poll: PollFile{Interval: "1m"}},
			newF:        &File{Poll: PollFile{Interval: "2m"}, Systemd: SystemdFile{Notify: &off}, Telegram: TelegramFile{ChatID: 1}},
			wantChanged: []string{"telegram", "poll", "systemd"},
			wantRestart: []string{"telegram", "poll", "systemd"},
		},
		{
			name:        "nil old",
			oldF:        nil,
			newF:        &File{Practicum: PracticumFile{FromDate: 1}},
			wantChanged: []string{"practicum"},
			wantRestart: []string{"practicum"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			changed, fields := SummarizeChange(tt.oldF, tt.newF)
			if diff := cmp.Diff(tt.wantChanged, changed); diff != "" {
				t.Fatalf("changed mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantRestart, RestartRequired(changed)); diff != "" {
				t.Fatalf("restart mismatch (-want +got):\n%s", diff)
			}
			if len(fields) != tt.wantFields {
				t.Fatalf("fields = %d, want %d", len(fields), tt.wantFields)
			}
		})
	}
}
