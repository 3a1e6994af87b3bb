package repro

import "time"

// KnownIssue reports whether the id-set query is known to lose rows for the
// given combination. SQLite stores GUIDs as blobs while the inlined id list
// is rendered as text literals.
func KnownIssue(b BackendKind, k KeyKind) bool {
	return b == BackendSQLite && k == KeyGUID
}

type Entry struct {
	ID    string
	Value string
}

func EntriesOf[K Key](records []Record[K]) []Entry {
	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = Entry{
			ID:    FormatKey(r.ID),
			Value: r.Value,
		}
	}
	return entries
}

// Outcome is the result of one experiment run.
type Outcome struct {
	Backend  BackendKind
	Key      KeyKind
	Saved    int
	All      []Entry
	Matched  []Entry
	Duration time.Duration
	Err      error
}

// Mismatch is true when the id-set query returned a different number of
// rows than were saved.
func (o Outcome) Mismatch() bool {
	return o.Err == nil && o.Saved != len(o.Matched)
}

// Expected is true when the run completed and its mismatch status agrees
// with KnownIssue.
func (o Outcome) Expected() bool {
	return o.Err == nil && o.Mismatch() == KnownIssue(o.Backend, o.Key)
}

func (o Outcome) Status() string {
	switch {
	case o.Err != nil:
		return "error"
	case o.Mismatch() && KnownIssue(o.Backend, o.Key):
		return "known issue"
	case o.Mismatch():
		return "mismatch"
	case KnownIssue(o.Backend, o.Key):
		return "fixed"
	default:
		return "ok"
	}
}
