package repositories

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/models"
	"github.com/desertthunder/raff/internal/shared"
	"github.com/zeebo/xxh3"
)

// ReviewsKeyPrefix precedes the per-book namespace in review record keys.
const ReviewsKeyPrefix = "raff-elkalimat-reviews-"

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9-]`)

// KeyEncoding selects how a book key becomes a review record namespace.
type KeyEncoding int

const (
	// HashedKeys appends an xxh3 digest of the raw key so distinct keys never share a record.
	HashedKeys KeyEncoding = iota
	// LegacyKeys strips every character outside [a-zA-Z0-9-]. Keys such as
	// "/works/OL1W" and "works/OL1W" collide.
	LegacyKeys
)

func (e KeyEncoding) String() string {
	switch e {
	case HashedKeys:
		return "hashed"
	case LegacyKeys:
		return "legacy"
	default:
		return ""
	}
}

// ParseKeyEncoding maps a config value to a [KeyEncoding]; empty means hashed.
func ParseKeyEncoding(s string) (KeyEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hashed":
		return HashedKeys, nil
	case "legacy":
		return LegacyKeys, nil
	default:
		return HashedKeys, fmt.Errorf("%w: unknown review key encoding %q", shared.ErrInvalidConfig, s)
	}
}

// ReviewRecordKey returns the storage key holding reviews for bookKey.
func ReviewRecordKey(bookKey string, enc KeyEncoding) string {
	ns := unsafeKeyChars.ReplaceAllString(bookKey, "")
	if enc == HashedKeys {
		ns = fmt.Sprintf("%s-%016x", ns, xxh3.HashString(bookKey))
	}
	return ReviewsKeyPrefix + ns
}

// ReviewStore keeps per-book lists of reader reviews, newest first.
type ReviewStore struct {
	mu       sync.Mutex
	storage  Storage
	logger   *log.Logger
	encoding KeyEncoding
	now      func() time.Time
	newID    func() string
}

// NewReviewStore creates a new ReviewStore.
func NewReviewStore(storage Storage, enc KeyEncoding, logger *log.Logger) *ReviewStore {
	return &ReviewStore{
		storage:  storage,
		logger:   defaultLogger(logger),
		encoding: enc,
		now:      time.Now,
		newID:    shared.GenerateID,
	}
}

// List returns the reviews for bookKey, newest first. Unreadable records yield an empty list.
func (r *ReviewStore) List(bookKey string) []models.UserReview {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(bookKey)
}

// Add prepends a review for bookKey. Blank or whitespace-only text is ignored
// and reported with false.
func (r *ReviewStore) Add(bookKey, text string) (models.UserReview, bool) {
	review, ok := models.NewUserReview(r.newID(), text, r.now())
	if !ok || bookKey == "" {
		return models.UserReview{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reviews := append([]models.UserReview{review}, r.load(bookKey)...)
	saveJSON(r.storage, r.logger, ReviewRecordKey(bookKey, r.encoding), reviews)
	return review, true
}

func (r *ReviewStore) load(bookKey string) []models.UserReview {
	reviews := []models.UserReview{}
	loadJSON(r.storage, r.logger, ReviewRecordKey(bookKey, r.encoding), &reviews)
	if reviews == nil {
		reviews = []models.UserReview{}
	}
	return reviews
}
