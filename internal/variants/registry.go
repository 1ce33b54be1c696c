package variants

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrUnknownVariant = errors.New("unknown variant")

// Entry is a variant input card as the user sees it. Name holds the raw text
// as typed; trimming and uniqueness are the validator's business.
type Entry struct {
	ID          string
	Ordinal     int // 1-based display number, always equal to position
	Name        string
	Impressions int
	Conversions int
	Revenue     float64
}

// Template describes an entry to build.
type Template struct {
	ID          string
	Name        string
	Impressions int
	Conversions int
	Revenue     float64
}

// NewEntry builds an entry view-model from a template. An empty ID gets a
// fresh one.
func NewEntry(t Template) Entry {
	id := t.ID
	if id == "" {
		id = uuid.NewString()
	}
	return Entry{
		ID:          id,
		Name:        t.Name,
		Impressions: t.Impressions,
		Conversions: t.Conversions,
		Revenue:     t.Revenue,
	}
}

// DefaultTemplates returns the two variants a new session starts with.
func DefaultTemplates() []Template {
	return []Template{
		{Name: "A", Impressions: 1000, Conversions: 100, Revenue: 100},
		{Name: "B", Impressions: 1000, Conversions: 120, Revenue: 110},
	}
}

// Registry is the ordered, in-memory list of variant entries for one session.
// It does not enforce unique names.
type Registry struct {
	entries []Entry
	counter int
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends an empty entry named suggestedName and returns its ID.
func (r *Registry) Add(suggestedName string) string {
	return r.AddTemplate(Template{Name: suggestedName})
}

// AddTemplate appends an entry built from t and returns its ID.
func (r *Registry) AddTemplate(t Template) string {
	r.counter++
	e := NewEntry(t)
	e.Ordinal = len(r.entries) + 1
	r.entries = append(r.entries, e)
	return e.ID
}

// Remove deletes the entry and renumbers the remaining ones.
func (r *Registry) Remove(id string) error {
	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownVariant, id)
	}
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	r.renumber()
	return nil
}

// Update applies fn to the entry. ID and Ordinal cannot be changed.
func (r *Registry) Update(id string, fn func(*Entry)) error {
	idx := r.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownVariant, id)
	}
	e := r.entries[idx]
	fn(&e)
	e.ID = r.entries[idx].ID
	e.Ordinal = r.entries[idx].Ordinal
	r.entries[idx] = e
	return nil
}

// Get returns a copy of the entry.
func (r *Registry) Get(id string) (Entry, bool) {
	idx := r.indexOf(id)
	if idx < 0 {
		return Entry{}, false
	}
	return r.entries[idx], true
}

// List returns a copy of all entries in display order.
func (r *Registry) List() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// NextSuggestedName returns the name proposed for the next added variant:
// A, B, ... Z, AA, AB, ...
func (r *Registry) NextSuggestedName() string {
	return letters(r.counter)
}

func (r *Registry) indexOf(id string) int {
	for i, e := range r.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) renumber() {
	for i := range r.entries {
		r.entries[i].Ordinal = i + 1
	}
	r.counter = len(r.entries)
}

// letters converts a zero-based index to spreadsheet-style column letters.
func letters(n int) string {
	var out []byte
	for n >= 0 {
		out = append([]byte{byte('A' + n%26)}, out...)
		n = n/26 - 1
	}
	return string(out)
}
