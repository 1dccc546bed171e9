package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/reshetovitsme/yt-backlog/internal/modules/source/domain"
	videoDomain "github.com/reshetovitsme/yt-backlog/internal/modules/video/domain"
	"github.com/reshetovitsme/yt-backlog/internal/shared/config"
	"github.com/samber/oops"
)

// maxLineSize bounds a single metadata record. Titles can be long.
const maxLineSize = 1 << 20

// MetadataFetcher writes one record per link listed in inputFile to outputFile.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, inputFile, outputFile string) error
}

// VideoAdder stores parsed records.
type VideoAdder interface {
	AddVideo(ctx context.Context, channelName, title string, duration videoDomain.ClockTime, link string) (bool, error)
}

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(question string) (bool, error)

func (f ConfirmFunc) Confirm(question string) (bool, error) {
	return f(question)
}

// LoadResult counts what a load did with each line.
type LoadResult struct {
	Added      int
	Duplicates int
	Skipped    int
	Errors     []error
}

// PurgeResult reports which working files were touched.
type PurgeResult struct {
	OutputRemoved bool
	InputReset    bool
}

// Service moves link lists through the downloader into the backlog
type Service struct {
	inputFile  string
	outputFile string
	fetcher    MetadataFetcher
	videos     VideoAdder
	logger     *slog.Logger
}

// New creates a new source service
func New(cfg *config.Config, fetcher MetadataFetcher, videos VideoAdder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		inputFile:  cfg.InputFile,
		outputFile: cfg.OutputFile,
		fetcher:    fetcher,
		videos:     videos,
		logger:     logger,
	}
}

// FetchMetadata has the fetcher turn the links file into metadata records.
func (s *Service) FetchMetadata(ctx context.Context) error {
	if _, err := os.Stat(s.inputFile); err != nil {
		return oops.With("input_file", s.inputFile, "context", "links file not readable").Wrap(err)
	}

	if err := s.fetcher.FetchMetadata(ctx, s.inputFile, s.outputFile); err != nil {
		return oops.With("input_file", s.inputFile, "output_file", s.outputFile).Wrap(err)
	}

	s.logger.Debug("Titles and durations fetched", "output_file", s.outputFile)
	return nil
}

// LoadFile loads the metadata output file into the backlog.
func (s *Service) LoadFile(ctx context.Context) (LoadResult, error) {
	f, err := os.Open(s.outputFile)
	if err != nil {
		return LoadResult{}, oops.With("output_file", s.outputFile, "context", "failed to open metadata file").Wrap(err)
	}
	defer func() { _ = f.Close() }()

	return s.Load(ctx, f)
}

// Load adds one video per record read from r. Malformed records are skipped
// and counted; blank lines are ignored. A store failure stops the load, but
// videos added before it stay committed.
func (s *Service) Load(ctx context.Context, r io.Reader) (LoadResult, error) {
	var result LoadResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := ctx.Err(); err != nil {
			return result, oops.Wrap(err)
		}

		rec, err := domain.ParseRecord(line)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, oops.With("line_number", lineNumber).Wrap(err))
			s.logger.Warn("Skipping malformed record", "line_number", lineNumber, "error", err)
			continue
		}

		added, err := s.videos.AddVideo(ctx, rec.Channel, rec.Title, rec.Duration, rec.Link)
		if err != nil {
			return result, oops.With("line_number", lineNumber).Wrap(err)
		}
		if added {
			result.Added++
		} else {
			result.Duplicates++
		}
	}

	if err := scanner.Err(); err != nil {
		return result, oops.With("line_number", lineNumber, "context", "failed to read records").Wrap(err)
	}

	s.logger.Debug("Parse and load job completed",
		"added", result.Added, "duplicates", result.Duplicates, "skipped", result.Skipped)
	return result, nil
}

// Purge removes the metadata output file and, if confirm agrees, resets the
// links file to empty.
func (s *Service) Purge(ctx context.Context, confirm Confirmer) (PurgeResult, error) {
	var result PurgeResult

	if err := ctx.Err(); err != nil {
		return result, oops.Wrap(err)
	}

	switch err := os.Remove(s.outputFile); {
	case err == nil:
		result.OutputRemoved = true
		s.logger.Debug("File deleted", "path", s.outputFile)
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("File does not exist", "path", s.outputFile)
	default:
		return result, oops.With("output_file", s.outputFile, "context", "failed to delete metadata file").Wrap(err)
	}

	if _, err := os.Stat(s.inputFile); errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("File does not exist", "path", s.inputFile)
		return result, nil
	} else if err != nil {
		return result, oops.With("input_file", s.inputFile).Wrap(err)
	}

	ok, err := confirm.Confirm(fmt.Sprintf("Do you want to delete %s? (yes/no): ", s.inputFile))
	if err != nil {
		return result, oops.With("input_file", s.inputFile, "context", "confirmation failed").Wrap(err)
	}
	if !ok {
		return result, nil
	}

	if err := renameio.WriteFile(s.inputFile, nil, 0644); err != nil {
		return result, oops.With("input_file", s.inputFile, "context", "failed to reset links file").Wrap(err)
	}
	result.InputReset = true
	s.logger.Debug("Fresh links file created", "path", s.inputFile)
	return result, nil
}
