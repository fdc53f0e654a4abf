package tasks

import (
	"fmt"

	"github.com/desertthunder/raff/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data, e.g. a finished [CategoryRow]
}

// Operation phase enumeration
type Phase int

const (
	LoadCategories Phase = iota
	LoadRecommendations
	FetchDetails
	FetchInfo
	FetchReviews
	DownloadBooks
)

func (p Phase) String() string {
	switch p {
	case LoadCategories:
		return "load_categories"
	case LoadRecommendations:
		return "load_recommendations"
	case FetchDetails:
		return "fetch_details"
	case FetchInfo:
		return "fetch_info"
	case FetchReviews:
		return "fetch_reviews"
	case DownloadBooks:
		return "download_books"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchingCategoryUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadCategories,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Loading %s...", step, total, name),
	}
}

func categoryLoadedUpdate(step, total int, row CategoryRow) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s (%d books)", step, total, row.Name, len(row.Books))
	if row.Error != "" {
		msg = fmt.Sprintf("[%d/%d] ✗ %s", step, total, row.Error)
	}
	return ProgressUpdate{
		Phase:   LoadCategories,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    row,
	}
}

func fetchingRecommendationsUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadRecommendations,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Gathering recommendations from %s...", step, total, name),
	}
}

func recommendationsLoadedUpdate(row CategoryRow) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadRecommendations,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%s: %d books", row.Name, len(row.Books)),
		Data:    row,
	}
}

func detailPartUpdate(phase Phase, book models.Book) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching %s for %s...", detailPartName(phase), book.Title),
	}
}

func detailPartName(phase Phase) string {
	switch phase {
	case FetchDetails:
		return "details"
	case FetchInfo:
		return "web information"
	case FetchReviews:
		return "reviews"
	default:
		return phase.String()
	}
}

func downloadStartedUpdate(step, total int, book models.Book) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadBooks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Downloading: %s...", step, total, book.Title),
	}
}

func downloadCompletedUpdate(step, total int, res models.DownloadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadBooks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d downloads)", step, total, res.Title, res.Count),
		Data:    res,
	}
}

func downloadFailedUpdate(step, total int, res models.DownloadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadBooks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
		Data:    res,
	}
}
