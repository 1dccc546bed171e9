package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	downloadDomain "github.com/reshetovitsme/yt-backlog/internal/modules/download/domain"
	apperrors "github.com/reshetovitsme/yt-backlog/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Action is the operation a command runs
type Action int

const (
	ActionHelp Action = iota
	ActionLoad
	ActionTime
	ActionClean
	ActionDownload
	ActionExport
	ActionList
	ActionSetCategory
)

// actionFlags maps every action flag name, short and long, to its action.
var actionFlags = map[string]Action{
	"l":            ActionLoad,
	"load":         ActionLoad,
	"t":            ActionTime,
	"time":         ActionTime,
	"c":            ActionClean,
	"clean":        ActionClean,
	"d":            ActionDownload,
	"download":     ActionDownload,
	"e":            ActionExport,
	"export":       ActionExport,
	"list":         ActionList,
	"set-category": ActionSetCategory,
}

// Command represents a parsed CLI command
type Command struct {
	Action      Action
	Channel     string
	ExportPath  string
	Category    string
	ConfigFile  string
	Verbose     bool
	NoSubtitles bool
	RateLimited bool
}

// String returns a string representation of the command
func (c *Command) String() string {
	var name string
	switch c.Action {
	case ActionHelp:
		return "help"
	case ActionLoad:
		return "load"
	case ActionTime:
		name = "time"
	case ActionClean:
		return "clean"
	case ActionDownload:
		name = "download"
	case ActionExport:
		return fmt.Sprintf("export (path: %s)", c.ExportPath)
	case ActionList:
		return "list"
	case ActionSetCategory:
		return fmt.Sprintf("set-category (channel: %s, category: %s)", c.Channel, c.Category)
	default:
		return "unknown"
	}
	if c.Channel != "" {
		return fmt.Sprintf("%s (channel: %s)", name, c.Channel)
	}
	return name
}

// DownloadOptions returns the download tuning selected by the modifiers.
func (c *Command) DownloadOptions() downloadDomain.Options {
	return downloadDomain.Options{
		Subtitles:   !c.NoSubtitles,
		RateLimited: c.RateLimited,
	}
}

// Parse parses command-line arguments, without the program name, into a
// Command. Flag errors are written to output. Any misuse wraps ErrUsage.
func Parse(args []string, output io.Writer) (*Command, error) {
	cmd := &Command{}

	fs := flag.NewFlagSet("yt-backlog", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {}

	var load, report, clean, download, list bool
	boolFlag(fs, &load, "l", "load", "Parse and load links from the links file into the backlog")
	boolFlag(fs, &report, "t", "time", "Report the length of the backlog in terms of time")
	boolFlag(fs, &clean, "c", "clean", "Remove downloaded videos, delete the output file, offer to reset the links file")
	boolFlag(fs, &download, "d", "download", "Download pending videos")
	stringFlag(fs, &cmd.ExportPath, "e", "export", "Write pending videos as an RSS feed to `path`")
	fs.BoolVar(&list, "list", false, "List channels with their video counts")
	fs.StringVar(&cmd.Category, "set-category", "", "Set the category of --channel to `value`")

	fs.StringVar(&cmd.Channel, "channel", "", "Run the operation on this channel only")
	fs.StringVar(&cmd.ConfigFile, "config", "", "Configuration `file`")
	boolFlag(fs, &cmd.Verbose, "v", "verbose", "Enable verbose output")
	boolFlag(fs, &cmd.NoSubtitles, "ns", "nosubtitles", "Do not download subtitles (only with -d)")
	boolFlag(fs, &cmd.RateLimited, "rl", "ratelimit", "Limit download bandwidth (only with -d)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return &Command{Action: ActionHelp}, nil
		}
		return nil, oops.With("args", args).Wrapf(apperrors.ErrUsage, "%s", err.Error())
	}
	if fs.NArg() > 0 {
		return nil, oops.With("args", fs.Args()).Wrapf(apperrors.ErrUsage, "unexpected argument %q", fs.Arg(0))
	}

	var actions []Action
	fs.Visit(func(f *flag.Flag) {
		if action, ok := actionFlags[f.Name]; ok {
			actions = append(actions, action)
		}
	})
	actions = lo.Uniq(actions)

	switch len(actions) {
	case 0:
		cmd.Action = ActionHelp
	case 1:
		cmd.Action = actions[0]
	default:
		names := lo.Map(actions, func(a Action, _ int) string {
			return (&Command{Action: a}).String()
		})
		return nil, oops.With("actions", names).
			Wrapf(apperrors.ErrUsage, "only one of -l, -t, -c, -d, -e, --list, --set-category may be given")
	}

	if err := cmd.validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func (c *Command) validate() error {
	if c.NoSubtitles && c.Action != ActionDownload {
		return oops.Wrapf(apperrors.ErrUsage,
			"-ns / --nosubtitles can only be used while downloading video(s) (with -d / --download)")
	}
	if c.RateLimited && c.Action != ActionDownload {
		return oops.Wrapf(apperrors.ErrUsage,
			"-rl / --ratelimit can only be used while downloading video(s) (with -d / --download)")
	}
	if c.Action == ActionSetCategory && strings.TrimSpace(c.Channel) == "" {
		return oops.Wrapf(apperrors.ErrUsage, "--set-category requires --channel")
	}
	if c.Action == ActionExport && strings.TrimSpace(c.ExportPath) == "" {
		return oops.Wrapf(apperrors.ErrUsage, "-e / --export requires a path")
	}
	return nil
}

func boolFlag(fs *flag.FlagSet, p *bool, short, long, usage string) {
	fs.BoolVar(p, short, false, usage)
	fs.BoolVar(p, long, false, usage)
}

func stringFlag(fs *flag.FlagSet, p *string, short, long, usage string) {
	fs.StringVar(p, short, "", usage)
	fs.StringVar(p, long, "", usage)
}

// PrintHelp prints the help message
func PrintHelp(w io.Writer) {
	help := `yt-backlog - offline "watch later" backlog with download capabilities

If a channel name is provided, operations run on that channel only.
Otherwise they run on the entire backlog.

Usage:
  yt-backlog [action] [flags]

Actions (at most one):
  -l, --load              Fetch metadata for the links file and load it into the backlog
  -t, --time              Report the length of the backlog in terms of time
  -c, --clean             Remove downloaded videos, delete the output file, offer to reset the links file
  -d, --download          Download pending videos
  -e, --export path       Write pending videos as an RSS feed to path
      --list              List channels with their video counts
      --set-category val  Set the category of --channel

Flags:
      --channel name      Run the operation on this channel only
      --config file       Configuration file (default: first of backlog.yaml|yml|json|toml)
  -v, --verbose           Enable verbose output
  -ns, --nosubtitles      Do not download subtitles (only with -d)
  -rl, --ratelimit        Limit download bandwidth (only with -d)

Examples:
  yt-backlog -l
  yt-backlog -t
  yt-backlog -t --channel "Some Channel"
  yt-backlog -d -ns -rl
  yt-backlog -c
`
	fmt.Fprint(w, help)
}
