package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/raff/internal/formatter"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/services"
	"github.com/desertthunder/raff/internal/shared"
	"github.com/desertthunder/raff/internal/tasks"
	"github.com/desertthunder/raff/internal/ui"
	"github.com/urfave/cli/v3"
)

// searchOutput is the JSON shape of a search page.
type searchOutput struct {
	Query      string        `json:"query"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	NumFound   int           `json:"num_found"`
	Sort       string        `json:"sort"`
	Books      []models.Book `json:"books"`
}

// detailOutput is the JSON shape of a book detail.
type detailOutput struct {
	Book        models.Book       `json:"book"`
	Description string            `json:"description"`
	Subjects    []string          `json:"subjects,omitempty"`
	Info        *models.Generated `json:"info,omitempty"`
	Reviews     []string          `json:"reviews,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// Search prints one page of catalog results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	page := int(cmd.Int("page"))
	if page < 1 {
		return fmt.Errorf("%w: page must be at least 1", shared.ErrInvalidFlag)
	}

	sortOpt, ok := ui.ParseSortOption(cmd.String("sort"))
	if !ok {
		return fmt.Errorf("%w: unknown sort %q", shared.ErrInvalidFlag, cmd.String("sort"))
	}

	if cmd.Bool("series") {
		query = services.SeriesQuery(query)
	}

	r.logger.Debug("searching catalog", "query", query, "page", page)
	result, err := r.catalog.SearchBooks(ctx, query, page)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := searchOutput{
		Query:      query,
		Page:       page,
		TotalPages: (result.NumFound + services.PageSize - 1) / services.PageSize,
		NumFound:   result.NumFound,
		Sort:       sortOpt.String(),
		Books:      ui.SortBooks(result.Docs, sortOpt),
	}

	if cmd.Bool("json") || cmd.Bool("pretty") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if len(out.Books) == 0 {
		r.writePlain("No books found for %q\n", query)
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("%d results for %q (%s)", out.NumFound, query, sortOpt.Label()))
	r.writeBooks(out.Books)
	if out.TotalPages > 1 {
		r.writePlainln("Page %d of %d", out.Page, out.TotalPages)
	}
	return nil
}

// Details prints a book's catalog description and, unless --no-assist is set,
// the grounded web info and review digest.
func (r *Runner) Details(ctx context.Context, cmd *cli.Command) error {
	book, err := r.resolveBook(ctx, cmd.StringArg("key"))
	if err != nil {
		return err
	}

	out := detailOutput{Book: book, Errors: map[string]string{}}
	if cmd.Bool("no-assist") {
		details, err := r.catalog.BookDetails(ctx, book.Key)
		if err != nil {
			return fmt.Errorf("failed to load details: %w", err)
		}
		out.Description = details.DescriptionText()
		out.Subjects = details.Subjects
	} else {
		detail := tasks.NewDetailLoader(r.catalog, r.assistant).Load(ctx, book, nil)
		if detail.DetailsErr != nil {
			return fmt.Errorf("failed to load details: %w", detail.DetailsErr)
		}
		out.Description = detail.Details.DescriptionText()
		if detail.Details != nil {
			out.Subjects = detail.Details.Subjects
		}
		out.Info = detail.Info
		if detail.InfoErr != nil {
			r.logger.Warn("web info unavailable", "key", book.Key, "error", detail.InfoErr)
			out.Errors["info"] = detail.InfoErr.Error()
		}
		if detail.ReviewsErr != nil {
			r.logger.Warn("review digest unavailable", "key", book.Key, "error", detail.ReviewsErr)
			out.Errors["reviews"] = detail.ReviewsErr.Error()
		} else if detail.Reviews != nil {
			out.Reviews = detail.Reviews.ReviewLines()
		}
	}

	if cmd.Bool("json") || cmd.Bool("pretty") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlainHeader(book.Title)
	if author := book.AuthorLine(); author != "" {
		r.writePlain("by %s\n", author)
	}
	r.writePlainln("%s", out.Description)
	if len(out.Subjects) > 0 {
		r.writePlainln("Subjects: %s", strings.Join(out.Subjects, ", "))
	}
	if book.CanRead() {
		r.writePlainln("Read online: %s", book.ReadURL())
	}

	if cmd.Bool("no-assist") {
		return nil
	}
	if out.Info != nil {
		r.writePlainln("About this book")
		r.writeGenerated(out.Info)
	} else if _, ok := out.Errors["info"]; ok {
		r.writeFail("Could not load extra information from the web.")
	}
	if len(out.Reviews) > 0 {
		r.writePlainln("What readers say")
		for _, line := range out.Reviews {
			r.writePlain("  • %s\n", line)
		}
	} else if _, ok := out.Errors["reviews"]; ok {
		r.writeFail("Could not load reviews from the web.")
	}
	return nil
}

// Subject lists books filed under a subject.
func (r *Runner) Subject(ctx context.Context, cmd *cli.Command) error {
	name := strings.TrimSpace(cmd.StringArg("name"))
	if name == "" {
		return fmt.Errorf("%w: subject name", shared.ErrMissingArgument)
	}

	books, err := r.catalog.BooksBySubject(ctx, name, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to load subject: %w", err)
	}

	if cmd.Bool("json") || cmd.Bool("pretty") {
		return r.writeJSON(books, cmd.Bool("pretty"))
	}

	if len(books) == 0 {
		r.writePlain("No books found under %q\n", name)
		return nil
	}
	r.writePlainHeader(fmt.Sprintf("%s (%d books)", name, len(books)))
	r.writeBooks(books)
	return nil
}

// Cover prints a book's cover URL, or saves the image with --output.
func (r *Runner) Cover(ctx context.Context, cmd *cli.Command) error {
	var size services.CoverSize
	switch strings.ToUpper(cmd.String("size")) {
	case "S":
		size = services.CoverSmall
	case "M", "":
		size = services.CoverMedium
	case "L":
		size = services.CoverLarge
	default:
		return fmt.Errorf("%w: cover size must be S, M or L", shared.ErrInvalidFlag)
	}

	book, err := r.resolveBook(ctx, cmd.StringArg("key"))
	if err != nil {
		return err
	}

	url := services.CoverURL(book, size)
	if ol, ok := r.catalog.(*services.OpenLibrary); ok {
		url = ol.CoverURL(book, size)
	}
	if url == "" {
		return fmt.Errorf("%w: %q has no cover", shared.ErrNotFound, book.Title)
	}

	output := cmd.String("output")
	if output == "" {
		r.writePlain("%s\n", url)
		return nil
	}

	data, err := formatter.DownloadImage(ctx, r.httpClient, url)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write cover: %w", err)
	}
	r.writeOK("Saved cover for %s to %s", book.Title, output)
	return nil
}

// Home loads every home feed row in order and prints each as it arrives.
func (r *Runner) Home(ctx context.Context, cmd *cli.Command) error {
	loader := r.homeLoader()
	asJSON := cmd.Bool("json") || cmd.Bool("pretty")
	show := int(cmd.Int("show"))

	printed := map[string]bool{}
	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
			if asJSON {
				continue
			}
			if row, ok := update.Data.(tasks.CategoryRow); ok {
				r.writeRow(row, show)
				printed[row.Name] = true
			}
		}
	}()

	feed, err := loader.Load(ctx, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}
	if asJSON {
		return r.writeJSON(feed, cmd.Bool("pretty"))
	}

	// progress sends never block, so rows can be dropped under load
	for _, row := range append(feed.Categories, feed.Recommendations) {
		if !printed[row.Name] {
			r.writeRow(row, show)
		}
	}
	return nil
}

// Info prints the grounded web summary for a book with its sources.
func (r *Runner) Info(ctx context.Context, cmd *cli.Command) error {
	return r.generate(ctx, cmd, func(ctx context.Context, book models.Book) (*models.Generated, error) {
		return r.assistant.GroundedBookInfo(ctx, book.Title, book.PrimaryAuthor())
	})
}

// Summary prints an AI plot and theme summary for a book.
func (r *Runner) Summary(ctx context.Context, cmd *cli.Command) error {
	return r.generate(ctx, cmd, func(ctx context.Context, book models.Book) (*models.Generated, error) {
		return r.assistant.BookSummary(ctx, book.Title, book.PrimaryAuthor())
	})
}

func (r *Runner) generate(
	ctx context.Context,
	cmd *cli.Command,
	fn func(context.Context, models.Book) (*models.Generated, error),
) error {
	if r.assistant == nil {
		return fmt.Errorf("%w: assistant not initialized", shared.ErrServiceUnavailable)
	}
	if g, ok := r.assistant.(*services.Gemini); ok && !g.Available() {
		return fmt.Errorf("%w: set generative.api_key or GEMINI_API_KEY", shared.ErrMissingCredentials)
	}

	book, err := r.resolveBook(ctx, cmd.StringArg("key"))
	if err != nil {
		return err
	}

	generated, err := fn(ctx, book)
	if err != nil {
		return fmt.Errorf("failed to generate text for %q: %w", book.Title, err)
	}

	if cmd.Bool("json") || cmd.Bool("pretty") {
		return r.writeJSON(generated, cmd.Bool("pretty"))
	}

	r.writePlainHeader(book.Title)
	r.writeGenerated(generated)
	return nil
}

func (r *Runner) homeLoader() *tasks.HomeLoader {
	browse := r.config.Browse
	return tasks.NewHomeLoader(r.catalog, tasks.HomeLoaderOpts{
		Delay:               browse.CategoryDelay(),
		CategoryLimit:       browse.CategoryLimit,
		RecommendationLimit: browse.RecommendationLimit,
		Logger:              r.logger,
	})
}

func (r *Runner) writeBooks(books []models.Book) {
	for i, b := range books {
		line := fmt.Sprintf("%3d. %s", i+1, b.Title)
		if author := b.AuthorLine(); author != "" {
			line += " by " + author
		}
		if b.FirstPublishYear > 0 {
			line += fmt.Sprintf(" (%d)", b.FirstPublishYear)
		}
		if b.CanRead() {
			r.writeOK("%s [%s]", line, b.Key)
		} else {
			r.writePlain("  %s [%s]\n", line, b.Key)
		}
	}
}

func (r *Runner) writeRow(row tasks.CategoryRow, show int) {
	if row.Error != "" {
		r.writeFail("%s: %s", row.Name, row.Error)
		return
	}
	if len(row.Books) == 0 {
		return
	}
	r.writeOK("%s (%d books)", row.Name, len(row.Books))
	for i, b := range row.Books {
		if show > 0 && i >= show {
			r.writePlain("    … and %d more\n", len(row.Books)-show)
			break
		}
		r.writePlain("    %s\n", b.Title)
	}
}

func (r *Runner) writeGenerated(g *models.Generated) {
	r.writePlain("%s\n", strings.TrimSpace(g.Text))
	if sources := g.Sources(); len(sources) > 0 {
		r.writePlainln("Sources:")
		for _, s := range sources {
			title := s.Title
			if title == "" {
				title = s.URI
			}
			r.writePlain("  - %s (%s)\n", title, s.URI)
		}
	}
}
