package repositories

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
)

// DownloadsKey is the record holding download counters as [[key, count], ...].
const DownloadsKey = "raff-elkalimat-downloads"

// DownloadCount is one counter entry.
type DownloadCount struct {
	Key   string `json:"key" yaml:"key"`
	Count int    `json:"count" yaml:"count"`
}

// counterPairs encodes counters as the array-of-pairs record format.
type counterPairs []DownloadCount

func (p counterPairs) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, len(p))
	for i, c := range p {
		pairs[i] = [2]any{c.Key, c.Count}
	}
	return json.Marshal(pairs)
}

func (p *counterPairs) UnmarshalJSON(data []byte) error {
	var raw [][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(counterPairs, 0, len(raw))
	for i, pair := range raw {
		if len(pair) != 2 {
			return fmt.Errorf("entry %d: expected [key, count]", i)
		}
		var c DownloadCount
		if err := json.Unmarshal(pair[0], &c.Key); err != nil {
			return fmt.Errorf("entry %d key: %w", i, err)
		}
		if err := json.Unmarshal(pair[1], &c.Count); err != nil {
			return fmt.Errorf("entry %d count: %w", i, err)
		}
		out = append(out, c)
	}
	*p = out
	return nil
}

// DownloadCounter counts confirmed downloads per book key. Counts only grow.
type DownloadCounter struct {
	mu      sync.Mutex
	storage Storage
	logger  *log.Logger
	counts  map[string]int
	order   []string
}

// NewDownloadCounter hydrates counters from storage. An unreadable record leaves them empty.
func NewDownloadCounter(storage Storage, logger *log.Logger) *DownloadCounter {
	d := &DownloadCounter{storage: storage, logger: defaultLogger(logger), counts: make(map[string]int)}

	var stored counterPairs
	if loadJSON(storage, d.logger, DownloadsKey, &stored) {
		for _, c := range stored {
			if c.Key == "" || c.Count < 0 {
				continue
			}
			if _, ok := d.counts[c.Key]; !ok {
				d.order = append(d.order, c.Key)
			}
			d.counts[c.Key] = c.Count
		}
	}
	return d
}

// Increment adds one to the counter for key, persists all counters and returns the new count.
func (d *DownloadCounter) Increment(key string) int {
	if key == "" {
		return 0
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.counts[key]; !ok {
		d.order = append(d.order, key)
	}
	d.counts[key]++
	saveJSON(d.storage, d.logger, DownloadsKey, d.snapshot())
	return d.counts[key]
}

// Count returns the counter for key, 0 when unseen.
func (d *DownloadCounter) Count(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[key]
}

// All returns every counter in first-download order.
func (d *DownloadCounter) All() []DownloadCount {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot()
}

func (d *DownloadCounter) snapshot() counterPairs {
	out := make(counterPairs, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, DownloadCount{Key: k, Count: d.counts[k]})
	}
	return out
}
