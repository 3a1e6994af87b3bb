package experiment

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.miragespace.co/idcontains/spec/repro"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// SampleValues are inserted, in order, by every run.
var SampleValues = []string{"foo", "bar", "foobar"}

const knownIssueMessage = "!!!ISSUE!!! Only in SQLite with Guid Id, no record is got."

var issueColor = color.New(color.FgRed, color.Bold)

// Run executes one experiment against st: create the schema, insert
// SampleValues, fetch everything, fetch again by the collected ids, and
// compare the counts. The schema is dropped and st closed on every exit path.
// Errors abort the run and are reported in the Outcome rather than returned.
func Run[K repro.Key](ctx context.Context, logger *zap.Logger, out io.Writer, st repro.Store[K]) (outcome repro.Outcome) {
	start := time.Now()
	outcome = repro.Outcome{
		Backend: st.Backend(),
		Key:     repro.KindOf[K](),
	}

	defer func() {
		// teardown must run even when ctx is already done
		dropCtx := context.WithoutCancel(ctx)
		if err := st.EnsureDeleted(dropCtx); err != nil {
			logger.Warn("Failed to drop schema", zap.Error(err))
			if outcome.Err == nil {
				outcome.Err = fmt.Errorf("dropping schema: %w", err)
			}
		}
		if err := st.Close(); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
		outcome.Duration = time.Since(start)
		logger.Debug("Experiment finished",
			zap.String("status", outcome.Status()),
			zap.Duration("took", outcome.Duration),
		)
	}()

	if err := st.EnsureCreated(ctx); err != nil {
		outcome.Err = err
		return
	}

	saved, err := st.Add(ctx, SampleValues...)
	if err != nil {
		outcome.Err = fmt.Errorf("saving records: %w", err)
		return
	}
	outcome.Saved = saved
	fmt.Fprintf(out, "%d records saved to database\n", saved)

	all, err := st.All(ctx)
	if err != nil {
		outcome.Err = fmt.Errorf("fetching all records: %w", err)
		return
	}
	outcome.All = repro.EntriesOf(all)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "All records in database:")
	printEntries(out, outcome.All)

	ids := make([]K, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}

	matched, err := st.WhereIDIn(ctx, ids)
	if err != nil {
		outcome.Err = fmt.Errorf("fetching records by id: %w", err)
		return
	}
	outcome.Matched = repro.EntriesOf(matched)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "All (%d) records in database:\n", saved)
	printEntries(out, outcome.Matched)

	if outcome.Mismatch() {
		if repro.KnownIssue(outcome.Backend, outcome.Key) {
			issueColor.Fprintln(out, knownIssueMessage)
		} else {
			issueColor.Fprintf(out, "!!!ISSUE!!! %d records saved but %d returned by id\n", saved, len(matched))
		}
		logger.Warn("Record count mismatch",
			zap.Int("saved", saved),
			zap.Int("matched", len(matched)),
			zap.Bool("known", repro.KnownIssue(outcome.Backend, outcome.Key)),
		)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out)
	return
}

func printEntries(out io.Writer, entries []repro.Entry) {
	for _, e := range entries {
		fmt.Fprintf(out, " - %s: %s\n", e.ID, e.Value)
	}
}
