package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/raff/internal/formatter"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/shared"
	"github.com/desertthunder/raff/internal/tasks"
	"github.com/desertthunder/raff/internal/ui"
	"github.com/urfave/cli/v3"
)

// FavoritesList prints every favorite in the order they were added.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	r.openStores()
	books := r.favorites.List()

	if cmd.Bool("json") || cmd.Bool("pretty") {
		return r.writeJSON(books, cmd.Bool("pretty"))
	}

	if len(books) == 0 {
		r.writePlain("You have no favorite books yet.\n")
		return nil
	}
	r.writePlainHeader(fmt.Sprintf("Favorites (%d)", len(books)))
	r.writeBooks(books)
	return nil
}

// FavoritesAdd looks a book up by key and stores it as a favorite.
func (r *Runner) FavoritesAdd(ctx context.Context, cmd *cli.Command) error {
	book, err := r.resolveBook(ctx, cmd.StringArg("key"))
	if err != nil {
		return err
	}

	r.openStores()
	if !r.favorites.Add(book) {
		r.writePlain("%s is already a favorite\n", book.Title)
		return nil
	}
	r.writeOK("Added %s to favorites", book.Title)
	return nil
}

func (r *Runner) FavoritesRemove(ctx context.Context, cmd *cli.Command) error {
	key := strings.TrimSpace(cmd.StringArg("key"))
	if key == "" {
		return fmt.Errorf("%w: book key", shared.ErrMissingArgument)
	}

	r.openStores()
	if !r.favorites.Remove(key) {
		return fmt.Errorf("%w: %s is not a favorite", shared.ErrNotFound, key)
	}
	r.writeOK("Removed %s from favorites", key)
	return nil
}

// FavoritesExport writes favorites to a file in the chosen format.
//
// Markdown writes a directory with a README.md and, with --covers, the cover images.
func (r *Runner) FavoritesExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	r.openStores()
	books := r.favorites.List()
	if len(books) == 0 {
		r.logger.Warn("exporting an empty favorites list")
	}
	export := formatter.NewFavoritesExport(books, r.downloads.Count, time.Now())

	if format == formatter.FormatMarkdown {
		result, err := formatter.WriteMarkdownExport(ctx, export, cmd.String("output"), r.httpClient, cmd.Bool("covers"), nil)
		if err != nil {
			return err
		}
		r.writeOK("Exported %d favorites to %s", export.Count, result.Directory)
		for _, f := range result.Files {
			r.writePlain("  %s\n", f)
		}
		return nil
	}

	if cmd.Bool("covers") {
		r.logger.Warn("--covers only applies to markdown exports", "format", format)
	}
	path, err := formatter.WriteExport(export, format, cmd.String("output"))
	if err != nil {
		return err
	}
	r.writeOK("Exported %d favorites to %s", export.Count, path)
	return nil
}

// ReviewsList prints the stored reviews for a book, newest first.
func (r *Runner) ReviewsList(ctx context.Context, cmd *cli.Command) error {
	key := strings.TrimSpace(cmd.StringArg("key"))
	if key == "" {
		return fmt.Errorf("%w: book key", shared.ErrMissingArgument)
	}

	r.openStores()
	reviews := r.reviews.List(key)

	if cmd.Bool("json") || cmd.Bool("pretty") {
		return r.writeJSON(reviews, cmd.Bool("pretty"))
	}

	if len(reviews) == 0 {
		r.writePlain("No reviews yet. Be the first to write one!\n")
		return nil
	}
	for _, review := range reviews {
		r.writePlain("%s\n  %s\n", reviewDate(review), review.Text)
	}
	return nil
}

// ReviewsAdd stores a review; every argument after the key is joined into the text.
func (r *Runner) ReviewsAdd(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: reviews add <key> <text...>", shared.ErrMissingArgument)
	}

	key := strings.TrimSpace(args[0])
	r.openStores()
	review, ok := r.reviews.Add(key, strings.Join(args[1:], " "))
	if !ok {
		return fmt.Errorf("%w: review text is blank", shared.ErrInvalidInput)
	}
	r.writeOK("Saved review for %s (%s)", key, reviewDate(review))
	return nil
}

// DownloadsCount prints the download counter for one book, or every counter.
func (r *Runner) DownloadsCount(ctx context.Context, cmd *cli.Command) error {
	r.openStores()
	pretty := cmd.Bool("pretty")
	asJSON := cmd.Bool("json") || pretty

	if key := strings.TrimSpace(cmd.StringArg("key")); key != "" {
		count := r.downloads.Count(key)
		if asJSON {
			return r.writeJSON(map[string]any{"key": key, "count": count}, pretty)
		}
		r.writePlain("%s: %d\n", key, count)
		return nil
	}

	counts := r.downloads.All()
	if asJSON {
		return r.writeJSON(counts, pretty)
	}
	if len(counts) == 0 {
		r.writePlain("No books downloaded yet.\n")
		return nil
	}
	for _, c := range counts {
		r.writePlain("%-24s %d\n", c.Key, c.Count)
	}
	return nil
}

// DownloadsGet downloads the PDF scans of the given books, and of every
// readable favorite with --favorites, counting each success.
func (r *Runner) DownloadsGet(ctx context.Context, cmd *cli.Command) error {
	r.openStores()

	books := []models.Book{}
	seen := map[string]bool{}
	for _, key := range cmd.Args().Slice() {
		book, err := r.resolveBook(ctx, key)
		if err != nil {
			return err
		}
		if !seen[book.Key] {
			seen[book.Key] = true
			books = append(books, book)
		}
	}
	if cmd.Bool("favorites") {
		for _, book := range r.favorites.List() {
			if book.CanRead() && !seen[book.Key] {
				seen[book.Key] = true
				books = append(books, book)
			}
		}
	}
	if len(books) == 0 {
		return fmt.Errorf("%w: at least one book key or --favorites", shared.ErrMissingArgument)
	}

	progress := make(chan tasks.ProgressUpdate, len(books)*2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message)
		}
	}()

	result, err := tasks.NewBulkDownloader(r.archive, r.downloads, r.logger).Run(ctx, progress, books, tasks.BulkDownloadOpts{
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
		Manifest:   cmd.Bool("manifest"),
	})
	close(progress)
	<-done

	if result != nil {
		for _, res := range result.Results {
			if res.Success {
				r.writeOK("%s → %s (downloaded %d times)", res.Title, res.Path, res.Count)
			} else {
				r.writeFail("%s: %s", res.Title, res.Message)
			}
		}
		r.writePlainln("%d of %d downloaded to %s", result.Succeeded, result.Total, result.OutputDirectory)
		if result.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", result.ManifestPath)
		}
	}
	if err != nil {
		return err
	}
	if result.Succeeded == 0 {
		return fmt.Errorf("%w: no books were downloaded", shared.ErrFetch)
	}
	return nil
}

// ThemeShow prints the stored theme, or the default when none is saved.
func (r *Runner) ThemeShow(ctx context.Context, cmd *cli.Command) error {
	r.openStores()
	ctrl := ui.NewController(r.prefs, false)
	if _, ok := r.prefs.Theme(); !ok {
		r.writePlain("%s (default)\n", ctrl.Theme())
		return nil
	}
	r.writePlain("%s\n", ctrl.Theme())
	return nil
}

// ThemeToggle flips the stored theme between light and dark.
func (r *Runner) ThemeToggle(ctx context.Context, cmd *cli.Command) error {
	r.openStores()
	theme := ui.NewController(r.prefs, false).ToggleTheme()
	r.writeOK("Theme set to %s", theme)
	return nil
}

func reviewDate(review models.UserReview) string {
	t, err := review.Time()
	if err != nil {
		return review.Date
	}
	return t.Local().Format("Jan 2, 2006 3:04 PM")
}
