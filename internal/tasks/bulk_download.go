package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/formatter"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/shared"
	"golang.org/x/time/rate"
)

// Downloader fetches a book's PDF into dir and returns the written path.
type Downloader interface {
	Download(ctx context.Context, book models.Book, dir string) (string, error)
}

// DownloadRecorder counts finished downloads.
type DownloadRecorder interface {
	Increment(key string) int
}

// BulkDownloadOpts contains configuration for bulk book downloads.
type BulkDownloadOpts struct {
	OutputDir  string  // Destination directory (default: current directory)
	NumWorkers int     // Concurrent workers (default: 2, max: 4)
	RateLimit  float64 // Downloads started per second (default: 1)
	Manifest   bool    // Write download_manifest.json to OutputDir
}

// BulkDownloader downloads several books concurrently and counts each success.
type BulkDownloader struct {
	downloader Downloader
	recorder   DownloadRecorder
	logger     *log.Logger
}

func NewBulkDownloader(downloader Downloader, recorder DownloadRecorder, logger *log.Logger) *BulkDownloader {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &BulkDownloader{downloader: downloader, recorder: recorder, logger: logger}
}

type downloadJob struct {
	step int
	book models.Book
}

// Run downloads books with a small worker pool behind a rate limiter.
//
// Books that cannot be read are reported as failures without a request.
// Results arrive in completion order. Every book handed to a worker increments
// the recorder before its transfer starts, so failed transfers are counted too.
func (b *BulkDownloader) Run(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	books []models.Book,
	opts BulkDownloadOpts,
) (*models.BulkDownloadResult, error) {
	if b.downloader == nil {
		return nil, fmt.Errorf("%w: downloader not initialized", shared.ErrServiceUnavailable)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}
	if opts.NumWorkers > 4 {
		opts.NumWorkers = 4
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &models.BulkDownloadResult{
		Total:           len(books),
		OutputDirectory: opts.OutputDir,
		Results:         make([]models.DownloadResult, 0, len(books)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan downloadJob, len(books))
	results := make(chan models.DownloadResult, len(books))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go b.worker(ctx, &wg, jobs, results, len(books), prog, opts.OutputDir)
	}

	go func() {
		defer close(jobs)
		for i, book := range books {
			if !book.CanRead() {
				results <- failedDownload(book, fmt.Errorf("%w: %q is not available for download", shared.ErrInvalidArgument, book.Title))
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- downloadJob{step: i + 1, book: book}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Succeeded++
			sendProgress(prog, downloadCompletedUpdate(completed, len(books), res))
		} else {
			result.Failed++
			sendProgress(prog, downloadFailedUpdate(completed, len(books), res))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if opts.Manifest {
		manifestPath := filepath.Join(opts.OutputDir, "download_manifest.json")
		if err := formatter.WriteDownloadManifest(result, manifestPath); err != nil {
			return result, fmt.Errorf("downloads completed but failed to write manifest: %w", err)
		}
		result.ManifestPath = manifestPath
	}
	return result, nil
}

func (b *BulkDownloader) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan downloadJob,
	results chan<- models.DownloadResult,
	total int,
	prog chan<- ProgressUpdate,
	dir string,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}

		count := 0
		if b.recorder != nil {
			count = b.recorder.Increment(job.book.Key)
		}

		sendProgress(prog, downloadStartedUpdate(job.step, total, job.book))
		path, err := b.downloader.Download(ctx, job.book, dir)
		if err != nil {
			b.logger.Error("download failed", "key", job.book.Key, "error", err)
			res := failedDownload(job.book, err)
			res.Count = count
			results <- res
			continue
		}

		results <- models.DownloadResult{Key: job.book.Key, Title: job.book.Title, Path: path, Count: count, Success: true}
	}
}

func failedDownload(book models.Book, err error) models.DownloadResult {
	return models.DownloadResult{
		Key:     book.Key,
		Title:   book.Title,
		Error:   err,
		Message: err.Error(),
	}
}
