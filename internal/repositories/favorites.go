package repositories

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/models"
)

// FavoritesKey is the record holding the JSON array of favorite books.
const FavoritesKey = "my-book-favorites"

// FavoritesStore keeps an ordered, key-unique list of favorite book snapshots.
//
// The full list is persisted after every mutation.
type FavoritesStore struct {
	mu      sync.Mutex
	storage Storage
	logger  *log.Logger
	books   []models.Book
}

// NewFavoritesStore hydrates the store from storage. An unreadable record leaves it empty.
func NewFavoritesStore(storage Storage, logger *log.Logger) *FavoritesStore {
	f := &FavoritesStore{storage: storage, logger: defaultLogger(logger), books: []models.Book{}}

	var stored []models.Book
	if loadJSON(storage, f.logger, FavoritesKey, &stored) {
		seen := make(map[string]bool, len(stored))
		for _, b := range stored {
			if b.Key == "" || seen[b.Key] {
				continue
			}
			seen[b.Key] = true
			f.books = append(f.books, b)
		}
	}
	return f
}

// Add appends book unless a favorite with the same key exists. It reports whether the list changed.
func (f *FavoritesStore) Add(book models.Book) bool {
	if book.Key == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.indexOf(book.Key) >= 0 {
		return false
	}
	f.books = append(f.books, book)
	f.persist()
	return true
}

// Remove deletes the favorite with key. It reports whether the list changed.
func (f *FavoritesStore) Remove(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(key)
	if i < 0 {
		return false
	}
	f.books = append(f.books[:i:i], f.books[i+1:]...)
	f.persist()
	return true
}

// Toggle adds or removes book and returns whether it is now a favorite.
func (f *FavoritesStore) Toggle(book models.Book) bool {
	if book.Key == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if i := f.indexOf(book.Key); i >= 0 {
		f.books = append(f.books[:i:i], f.books[i+1:]...)
		f.persist()
		return false
	}
	f.books = append(f.books, book)
	f.persist()
	return true
}

func (f *FavoritesStore) IsFavorite(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexOf(key) >= 0
}

// List returns a copy of the favorites in insertion order.
func (f *FavoritesStore) List() []models.Book {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Book(nil), f.books...)
}

func (f *FavoritesStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.books)
}

func (f *FavoritesStore) indexOf(key string) int {
	for i, b := range f.books {
		if b.Key == key {
			return i
		}
	}
	return -1
}

func (f *FavoritesStore) persist() {
	saveJSON(f.storage, f.logger, FavoritesKey, f.books)
}
