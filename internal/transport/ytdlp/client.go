package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	downloadDomain "github.com/reshetovitsme/yt-backlog/internal/modules/download/domain"
	sourceDomain "github.com/reshetovitsme/yt-backlog/internal/modules/source/domain"
	"github.com/reshetovitsme/yt-backlog/internal/shared/config"
	"github.com/samber/oops"
)

const (
	defaultPath    = "yt-dlp"
	defaultTimeout = 2 * time.Hour

	// OutputLayout is appended to the videos directory to name downloaded files.
	OutputLayout = "%(uploader)s/%(upload_date)s %(title)s.%(ext)s"
)

var (
	ErrYtdlpNotInstalled = errors.New("ytdlp: yt-dlp not installed")
	ErrYtdlpFailed       = errors.New("ytdlp: yt-dlp exited with an error")
)

// Client drives the yt-dlp executable.
type Client struct {
	// Path is the yt-dlp executable. Defaults to "yt-dlp".
	Path string

	// Timeout bounds a single yt-dlp invocation. Defaults to 2 hours.
	Timeout time.Duration

	// Format is passed as -f when not empty.
	Format string

	// OutputTemplate is passed as -o to media downloads.
	OutputTemplate string

	// SubtitleLangs selects the subtitle tracks to fetch.
	SubtitleLangs string

	// RateLimit is passed as -r when a download is rate limited.
	RateLimit string

	// Verbose forwards yt-dlp's own output to the terminal.
	Verbose bool

	logger *slog.Logger
}

// New creates a new yt-dlp client from configuration
func New(cfg *config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		Path:           cfg.YtdlpPath,
		Timeout:        cfg.YtdlpTimeout,
		Format:         cfg.YtdlpFormat,
		OutputTemplate: filepath.Join(cfg.VideosDir, OutputLayout),
		SubtitleLangs:  cfg.SubtitleLangs,
		RateLimit:      cfg.RateLimit,
		Verbose:        cfg.Verbose,
		logger:         logger,
	}
}

// FetchMetadata prints one record per link listed in inputFile into
// outputFile. The file is replaced in one step once yt-dlp exits; records
// printed before a failure are kept and ErrYtdlpFailed is returned.
func (c *Client) FetchMetadata(ctx context.Context, inputFile, outputFile string) error {
	if err := c.checkInstalled(ctx); err != nil {
		return err
	}

	out, err := renameio.NewPendingFile(outputFile, renameio.WithPermissions(0644))
	if err != nil {
		return oops.With("output_file", outputFile, "context", "failed to create metadata file").Wrap(err)
	}
	defer func() { _ = out.Cleanup() }()

	args := []string{"-a", inputFile, "--print", sourceDomain.PrintTemplate}
	runErr := c.run(ctx, args, out)

	if err := out.CloseAtomicallyReplace(); err != nil {
		return oops.With("output_file", outputFile, "context", "failed to replace metadata file").Wrap(err)
	}
	if runErr != nil {
		return oops.With("input_file", inputFile).Wrap(runErr)
	}

	c.logger.Debug("Titles and durations download completed", "output_file", outputFile)
	return nil
}

// Download fetches the media behind link into the output template.
func (c *Client) Download(ctx context.Context, link string, opts downloadDomain.Options) error {
	if err := c.checkInstalled(ctx); err != nil {
		return err
	}

	var stdout io.Writer = io.Discard
	if c.Verbose {
		stdout = os.Stdout
	}
	if err := c.run(ctx, c.downloadArgs(link, opts), stdout); err != nil {
		return oops.With("link", link).Wrap(err)
	}

	c.logger.Debug("Download completed", "link", link)
	return nil
}

func (c *Client) downloadArgs(link string, opts downloadDomain.Options) []string {
	var args []string
	if c.Format != "" {
		args = append(args, "-f", c.Format)
	}
	args = append(args, link)
	if c.OutputTemplate != "" {
		args = append(args, "-o", c.OutputTemplate)
	}
	if opts.Subtitles && c.SubtitleLangs != "" {
		args = append(args, "--write-subs", "--sub-langs", c.SubtitleLangs)
	}
	if opts.RateLimited && c.RateLimit != "" {
		args = append(args, "-r", c.RateLimit)
	}
	return args
}

func (c *Client) run(ctx context.Context, args []string, stdout io.Writer) error {
	cmdCtx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, c.path(), args...)
	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr
	if c.Verbose {
		cmd.Stderr = io.MultiWriter(&stderr, os.Stderr)
	}

	c.logger.Debug("Running yt-dlp", "args", args)
	err := cmd.Run()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(cmdCtx.Err(), context.DeadlineExceeded):
		return oops.With("timeout", c.timeout().String()).Wrap(context.DeadlineExceeded)
	case errors.Is(cmdCtx.Err(), context.Canceled):
		return oops.Wrap(context.Canceled)
	case errors.Is(err, exec.ErrNotFound):
		return oops.With("path", c.path()).Wrap(ErrYtdlpNotInstalled)
	}

	return oops.With("exit", err.Error(), "stderr", lastLine(stderr.String())).Wrap(ErrYtdlpFailed)
}

// checkInstalled verifies that yt-dlp is available.
func (c *Client) checkInstalled(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.path(), "--version")
	if err := cmd.Run(); err != nil {
		return oops.With("path", c.path(), "cause", err.Error()).Wrap(ErrYtdlpNotInstalled)
	}
	return nil
}

func (c *Client) path() string {
	if c.Path != "" {
		return c.Path
	}
	return defaultPath
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
