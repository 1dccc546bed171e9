package cli

import (
	"io"
	"testing"

	downloadDomain "github.com/reshetovitsme/yt-backlog/internal/modules/download/domain"
	apperrors "github.com/reshetovitsme/yt-backlog/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{name: "no flags", args: nil, want: Command{Action: ActionHelp}},
		{name: "help", args: []string{"-h"}, want: Command{Action: ActionHelp}},
		{name: "load short", args: []string{"-l"}, want: Command{Action: ActionLoad}},
		{name: "load long", args: []string{"--load", "-v"}, want: Command{Action: ActionLoad, Verbose: true}},
		{name: "time", args: []string{"-t"}, want: Command{Action: ActionTime}},
		{
			name: "time for channel",
			args: []string{"-t", "--channel", "Gophers"},
			want: Command{Action: ActionTime, Channel: "Gophers"},
		},
		{name: "clean", args: []string{"--clean"}, want: Command{Action: ActionClean}},
		{
			name: "download with modifiers",
			args: []string{"-d", "-ns", "-rl"},
			want: Command{Action: ActionDownload, NoSubtitles: true, RateLimited: true},
		},
		{
			name: "download long modifiers",
			args: []string{"--download", "--nosubtitles", "--ratelimit"},
			want: Command{Action: ActionDownload, NoSubtitles: true, RateLimited: true},
		},
		{
			name: "same action twice",
			args: []string{"-d", "--download"},
			want: Command{Action: ActionDownload},
		},
		{name: "export", args: []string{"-e", "feed.xml"}, want: Command{Action: ActionExport, ExportPath: "feed.xml"}},
		{name: "list", args: []string{"--list"}, want: Command{Action: ActionList}},
		{
			name: "set category",
			args: []string{"--set-category", "talks", "--channel", "Gophers"},
			want: Command{Action: ActionSetCategory, Category: "talks", Channel: "Gophers"},
		},
		{
			name: "config file",
			args: []string{"--config", "backlog.toml", "-t"},
			want: Command{Action: ActionTime, ConfigFile: "backlog.toml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.args, io.Discard)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParse_UsageErrors(t *testing.T) {
	tests := map[string][]string{
		"two actions":                  {"-l", "-t"},
		"nosubtitles without download": {"-t", "-ns"},
		"ratelimit without download":   {"--ratelimit"},
		"set category without channel": {"--set-category", "talks"},
		"export without path":          {"--export", ""},
		"unknown flag":                 {"--frobnicate"},
		"positional argument":          {"-t", "extra"},
	}

	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(args, io.Discard)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUsage)
		})
	}
}

func TestCommand_DownloadOptions(t *testing.T) {
	assert.Equal(t, downloadDomain.Options{Subtitles: true}, (&Command{Action: ActionDownload}).DownloadOptions())
	assert.Equal(t,
		downloadDomain.Options{RateLimited: true},
		(&Command{Action: ActionDownload, NoSubtitles: true, RateLimited: true}).DownloadOptions())
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "time", (&Command{Action: ActionTime}).String())
	assert.Equal(t, "download (channel: Gophers)", (&Command{Action: ActionDownload, Channel: "Gophers"}).String())
	assert.Equal(t, "export (path: feed.xml)", (&Command{Action: ActionExport, ExportPath: "feed.xml"}).String())
}
