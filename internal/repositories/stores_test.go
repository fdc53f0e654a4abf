package repositories

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/raff/internal/models"
	tu "github.com/desertthunder/raff/internal/testing"
)

func TestFavoritesStore(t *testing.T) {
	dune := models.Book{Key: "/works/OL1W", Title: "Dune", AuthorName: []string{"Frank Herbert"}}
	emma := models.Book{Key: "/works/OL2W", Title: "Emma"}

	t.Run("Add is idempotent", func(t *testing.T) {
		f := NewFavoritesStore(NewMemoryStorage(), quietLogger())
		if !f.Add(dune) {
			t.Error("expected first add to change the list")
		}
		if f.Add(dune) {
			t.Error("expected duplicate add to be ignored")
		}
		if f.Len() != 1 || !f.IsFavorite(dune.Key) {
			t.Errorf("expected exactly one favorite, got %v", f.List())
		}
	})

	t.Run("Remove and Toggle", func(t *testing.T) {
		f := NewFavoritesStore(NewMemoryStorage(), quietLogger())
		f.Add(dune)
		f.Add(emma)

		if !f.Remove(dune.Key) || f.Remove(dune.Key) {
			t.Error("expected remove to succeed once")
		}
		if got := f.List(); len(got) != 1 || got[0].Key != emma.Key {
			t.Errorf("unexpected favorites %v", got)
		}

		if f.Toggle(emma) {
			t.Error("expected toggle to remove existing favorite")
		}
		if !f.Toggle(emma) {
			t.Error("expected toggle to add missing favorite")
		}
	})

	t.Run("books without keys are rejected", func(t *testing.T) {
		f := NewFavoritesStore(NewMemoryStorage(), quietLogger())
		if f.Add(models.Book{Title: "No key"}) || f.Toggle(models.Book{Title: "No key"}) {
			t.Error("expected keyless book to be rejected")
		}
	})

	t.Run("round trip through SQLite", func(t *testing.T) {
		storage := NewSQLiteStorage(setupTestDB(t))
		f := NewFavoritesStore(storage, quietLogger())
		f.Add(dune)
		f.Add(emma)

		reloaded := NewFavoritesStore(storage, quietLogger())
		got := reloaded.List()
		if len(got) != 2 || got[0].Key != dune.Key || got[1].Key != emma.Key {
			t.Fatalf("expected favorites to survive reload in order, got %v", got)
		}
		if got[0].AuthorName[0] != "Frank Herbert" {
			t.Errorf("expected full snapshot to be stored, got %+v", got[0])
		}
	})

	t.Run("record shape is a JSON array of books", func(t *testing.T) {
		storage := NewMemoryStorage()
		f := NewFavoritesStore(storage, quietLogger())
		f.Add(dune)

		raw, _, _ := storage.GetItem(FavoritesKey)
		if !strings.HasPrefix(raw, `[{"key":"/works/OL1W","title":"Dune"`) {
			t.Errorf("unexpected record %s", raw)
		}
	})

	t.Run("duplicate keys in storage collapse on load", func(t *testing.T) {
		storage := NewMemoryStorage()
		storage.SetItem(FavoritesKey, `[{"key":"/works/A","title":"A"},{"key":"/works/A","title":"A again"}]`)
		f := NewFavoritesStore(storage, quietLogger())
		if f.Len() != 1 {
			t.Errorf("expected 1 favorite, got %d", f.Len())
		}
	})

	t.Run("corrupt record starts empty", func(t *testing.T) {
		storage := NewMemoryStorage()
		storage.SetItem(FavoritesKey, `{not json`)
		f := NewFavoritesStore(storage, quietLogger())
		if f.Len() != 0 {
			t.Errorf("expected empty favorites, got %d", f.Len())
		}
		if !f.Add(dune) {
			t.Error("expected store to keep working")
		}
	})

	t.Run("failing storage degrades to memory", func(t *testing.T) {
		f := NewFavoritesStore(tu.FailingStorage{}, quietLogger())
		if !f.Add(dune) || !f.IsFavorite(dune.Key) {
			t.Error("expected in-memory state despite write failures")
		}
	})

	t.Run("concurrent adds keep one entry per key", func(t *testing.T) {
		f := NewFavoritesStore(NewMemoryStorage(), quietLogger())
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				f.Add(dune)
			}()
		}
		wg.Wait()
		if f.Len() != 1 {
			t.Errorf("expected 1 favorite, got %d", f.Len())
		}
	})
}

func TestReviewStore(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	newStore := func(storage Storage, enc KeyEncoding) *ReviewStore {
		r := NewReviewStore(storage, enc, quietLogger())
		r.now = func() time.Time { return fixed }
		return r
	}

	t.Run("blank text is a no-op", func(t *testing.T) {
		storage := NewMemoryStorage()
		r := newStore(storage, HashedKeys)
		for _, text := range []string{"", "   ", "\t\n"} {
			if _, ok := r.Add("/works/OL1W", text); ok {
				t.Errorf("expected %q to be ignored", text)
			}
		}
		if len(r.List("/works/OL1W")) != 0 {
			t.Error("expected no reviews")
		}
		if _, ok, _ := storage.GetItem(ReviewRecordKey("/works/OL1W", HashedKeys)); ok {
			t.Error("expected nothing to be written")
		}
	})

	t.Run("new reviews are prepended", func(t *testing.T) {
		r := newStore(NewMemoryStorage(), HashedKeys)
		r.Add("/works/OL1W", "First")
		r.now = func() time.Time { return fixed.Add(time.Hour) }
		added, ok := r.Add("/works/OL1W", "Second")
		if !ok {
			t.Fatal("expected review to be added")
		}
		if added.ID == "" {
			t.Error("expected review id to be set")
		}

		got := r.List("/works/OL1W")
		if len(got) != 2 || got[0].Text != "Second" || got[1].Text != "First" {
			t.Fatalf("expected newest first, got %v", got)
		}
		if got[1].Date != "2024-05-01T12:00:00.000Z" {
			t.Errorf("unexpected date %s", got[1].Date)
		}
		if _, err := got[0].Time(); err != nil {
			t.Errorf("date should parse: %v", err)
		}
	})

	t.Run("lists are per book", func(t *testing.T) {
		r := newStore(NewSQLiteStorage(setupTestDB(t)), HashedKeys)
		r.Add("/works/OL1W", "About one")
		r.Add("/works/OL2W", "About two")
		if got := r.List("/works/OL1W"); len(got) != 1 || got[0].Text != "About one" {
			t.Errorf("unexpected reviews %v", got)
		}
	})

	t.Run("failing storage yields empty lists", func(t *testing.T) {
		r := newStore(tu.FailingStorage{}, HashedKeys)
		r.Add("/works/OL1W", "Lost review")
		if got := r.List("/works/OL1W"); got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil list, got %v", got)
		}
	})
}

func TestReviewRecordKey(t *testing.T) {
	t.Run("legacy strips unsafe characters", func(t *testing.T) {
		if got := ReviewRecordKey("/works/OL45883W", LegacyKeys); got != "raff-elkalimat-reviews-worksOL45883W" {
			t.Errorf("unexpected key %s", got)
		}
	})

	t.Run("legacy collides, hashed does not", func(t *testing.T) {
		a, b := "/works/OL1W", "works/OL1W"
		if ReviewRecordKey(a, LegacyKeys) != ReviewRecordKey(b, LegacyKeys) {
			t.Error("expected legacy keys to collide")
		}
		if ReviewRecordKey(a, HashedKeys) == ReviewRecordKey(b, HashedKeys) {
			t.Error("expected hashed keys to differ")
		}
	})

	t.Run("hashed keeps the readable prefix", func(t *testing.T) {
		got := ReviewRecordKey("/works/OL1W", HashedKeys)
		if !strings.HasPrefix(got, "raff-elkalimat-reviews-worksOL1W-") || len(got) != len("raff-elkalimat-reviews-worksOL1W-")+16 {
			t.Errorf("unexpected key %s", got)
		}
	})

	t.Run("ParseKeyEncoding", func(t *testing.T) {
		tc := []struct {
			in      string
			want    KeyEncoding
			wantErr bool
		}{
			{in: "", want: HashedKeys},
			{in: "hashed", want: HashedKeys},
			{in: "LEGACY", want: LegacyKeys},
			{in: "base64", wantErr: true},
		}
		for _, tt := range tc {
			got, err := ParseKeyEncoding(tt.in)
			if (err != nil) != tt.wantErr || (!tt.wantErr && got != tt.want) {
				t.Errorf("ParseKeyEncoding(%q) = %v, %v", tt.in, got, err)
			}
		}
	})
}

func TestDownloadCounter(t *testing.T) {
	t.Run("increments and defaults", func(t *testing.T) {
		d := NewDownloadCounter(NewMemoryStorage(), quietLogger())
		for i := 1; i <= 3; i++ {
			if got := d.Increment("/works/OL1W"); got != i {
				t.Errorf("expected %d, got %d", i, got)
			}
		}
		if d.Count("/works/OL1W") != 3 {
			t.Errorf("expected 3, got %d", d.Count("/works/OL1W"))
		}
		if d.Count("/works/unknown") != 0 {
			t.Error("expected unknown key to count 0")
		}
		if d.Increment("") != 0 {
			t.Error("expected blank key to be ignored")
		}
	})

	t.Run("record is an array of pairs in first-seen order", func(t *testing.T) {
		storage := NewMemoryStorage()
		d := NewDownloadCounter(storage, quietLogger())
		d.Increment("/works/B")
		d.Increment("/works/A")
		d.Increment("/works/B")

		raw, _, _ := storage.GetItem(DownloadsKey)
		if raw != `[["/works/B",2],["/works/A",1]]` {
			t.Errorf("unexpected record %s", raw)
		}
	})

	t.Run("hydrates from storage", func(t *testing.T) {
		storage := NewSQLiteStorage(setupTestDB(t))
		storage.SetItem(DownloadsKey, `[["/works/A",4],["/works/B",1],["",9],["/works/C",-2]]`)

		d := NewDownloadCounter(storage, quietLogger())
		if d.Count("/works/A") != 4 || d.Count("/works/B") != 1 {
			t.Errorf("unexpected counts %v", d.All())
		}
		if all := d.All(); len(all) != 2 {
			t.Errorf("expected invalid entries to be skipped, got %v", all)
		}
		if d.Increment("/works/A") != 5 {
			t.Error("expected increment to continue from stored count")
		}
	})

	t.Run("malformed record starts empty", func(t *testing.T) {
		storage := NewMemoryStorage()
		storage.SetItem(DownloadsKey, `[["/works/A"]]`)
		d := NewDownloadCounter(storage, quietLogger())
		if len(d.All()) != 0 {
			t.Errorf("expected no counters, got %v", d.All())
		}
	})
}

func TestPreferences(t *testing.T) {
	t.Run("theme round trip", func(t *testing.T) {
		storage := NewMemoryStorage()
		p := NewPreferences(storage, quietLogger())
		if _, ok := p.Theme(); ok {
			t.Error("expected no stored theme")
		}
		p.SetTheme(models.ThemeDark)
		if th, ok := p.Theme(); !ok || th != models.ThemeDark {
			t.Errorf("expected dark, got %v %v", th, ok)
		}
		if raw, _, _ := storage.GetItem(ThemeKey); raw != "dark" {
			t.Errorf("expected raw string record, got %q", raw)
		}
	})

	t.Run("invalid stored theme is ignored", func(t *testing.T) {
		storage := NewMemoryStorage()
		storage.SetItem(ThemeKey, "sepia")
		if _, ok := NewPreferences(storage, quietLogger()).Theme(); ok {
			t.Error("expected invalid theme to be ignored")
		}
	})

	t.Run("FirstVisit reports once", func(t *testing.T) {
		p := NewPreferences(NewMemoryStorage(), quietLogger())
		if !p.FirstVisit() {
			t.Error("expected first visit")
		}
		if p.FirstVisit() {
			t.Error("expected subsequent visits to be returning")
		}
	})

	t.Run("failing storage", func(t *testing.T) {
		p := NewPreferences(tu.FailingStorage{}, quietLogger())
		p.SetTheme(models.ThemeLight)
		if _, ok := p.Theme(); ok {
			t.Error("expected no theme from failing storage")
		}
		if p.FirstVisit() {
			t.Error("expected failing storage to report a returning visit")
		}
	})
}
