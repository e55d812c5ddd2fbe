package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/ecopulse/ecopulse/models"
	"github.com/ecopulse/ecopulse/repository"
)

// fakeWriter fails uploads for file names listed in failures.
type fakeWriter struct {
	failures map[string]error
	calls    []string
}

func (f *fakeWriter) Upsert(_ context.Context, _ models.PublishConfig, fileName, _ string) error {
	f.calls = append(f.calls, fileName)
	if err, ok := f.failures[fileName]; ok {
		return err
	}
	return nil
}

func stagedReports() []models.GeneratedReport {
	return []models.GeneratedReport{
		{Title: "One", FileName: "one.md", Content: "1"},
		{Title: "Two", FileName: "two.md", Content: "2"},
		{Title: "Three", FileName: "three.md", Content: "3"},
	}
}

func TestApprove_PartialFailureDoesNotAbortBatch(t *testing.T) {
	writer := &fakeWriter{failures: map[string]error{"two.md": errors.New("Validation Failed")}}
	w := NewWorkflow(writer, repository.NewInMemoryCredentialRepository())
	w.Stage(stagedReports())

	var transitions []models.ReportStatus
	err := w.Approve(context.Background(), models.PublishConfig{Token: "tok"}, func(_ int, r models.GeneratedReport) {
		transitions = append(transitions, r.Status)
	})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	got := w.Reports()
	want := []models.ReportStatus{models.ReportStatusSuccess, models.ReportStatusError, models.ReportStatusSuccess}
	for i, status := range want {
		if got[i].Status != status {
			t.Fatalf("report %d: expected %s, got %s", i, status, got[i].Status)
		}
	}
	if got[1].ErrorMessage != "Validation Failed" {
		t.Fatalf("error message not captured: %q", got[1].ErrorMessage)
	}
	if len(writer.calls) != 3 {
		t.Fatalf("failed item must not be retried automatically, got calls %v", writer.calls)
	}
	// Every item transitions uploading then terminal, visible per item.
	wantTransitions := []models.ReportStatus{
		models.ReportStatusUploading, models.ReportStatusSuccess,
		models.ReportStatusUploading, models.ReportStatusError,
		models.ReportStatusUploading, models.ReportStatusSuccess,
	}
	if len(transitions) != len(wantTransitions) {
		t.Fatalf("expected %d progress events, got %d", len(wantTransitions), len(transitions))
	}
	for i := range wantTransitions {
		if transitions[i] != wantTransitions[i] {
			t.Fatalf("transition %d: expected %s, got %s", i, wantTransitions[i], transitions[i])
		}
	}
}

func TestApprove_ReapprovalRetriesOnlyNonSuccess(t *testing.T) {
	writer := &fakeWriter{failures: map[string]error{"two.md": errors.New("boom")}}
	w := NewWorkflow(writer, repository.NewInMemoryCredentialRepository())
	w.Stage(stagedReports())

	if err := w.Approve(context.Background(), models.PublishConfig{Token: "tok"}, nil); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	writer.failures = nil
	writer.calls = nil
	if err := w.Approve(context.Background(), models.PublishConfig{Token: "tok"}, nil); err != nil {
		t.Fatalf("re-approve failed: %v", err)
	}
	if len(writer.calls) != 1 || writer.calls[0] != "two.md" {
		t.Fatalf("re-approval must only re-drive failed items, got %v", writer.calls)
	}
	for i, r := range w.Reports() {
		if r.Status != models.ReportStatusSuccess {
			t.Fatalf("report %d not successful after re-approval: %s", i, r.Status)
		}
	}
}

// blockingWriter parks the first upload until released, keeping a batch
// observably in flight.
type blockingWriter struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingWriter) Upsert(_ context.Context, _ models.PublishConfig, _, _ string) error {
	b.started <- struct{}{}
	<-b.release
	return nil
}

func TestQueueMutatorsRejectedWhileUploading(t *testing.T) {
	writer := &blockingWriter{started: make(chan struct{}), release: make(chan struct{})}
	w := NewWorkflow(writer, repository.NewInMemoryCredentialRepository())
	if err := w.Stage(stagedReports()[:1]); err != nil {
		t.Fatalf("stage failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- w.Approve(context.Background(), models.PublishConfig{Token: "tok"}, nil)
	}()
	<-writer.started

	// The batch walks the queue by position; mutating it now would misattribute
	// outcomes or index past the end.
	if err := w.Discard(0); !errors.Is(err, models.ErrPublishInProgress) {
		t.Fatalf("discard during upload: expected ErrPublishInProgress, got %v", err)
	}
	name := "renamed.md"
	if err := w.Edit(0, &name, nil); !errors.Is(err, models.ErrPublishInProgress) {
		t.Fatalf("edit during upload: expected ErrPublishInProgress, got %v", err)
	}
	if err := w.Stage(stagedReports()); !errors.Is(err, models.ErrPublishInProgress) {
		t.Fatalf("stage during upload: expected ErrPublishInProgress, got %v", err)
	}

	close(writer.release)
	if err := <-done; err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	got := w.Reports()
	if len(got) != 1 || got[0].Status != models.ReportStatusSuccess {
		t.Fatalf("batch outcome corrupted by concurrent mutators: %+v", got)
	}
	// The queue reopens once the batch settles.
	if err := w.Discard(0); err != nil {
		t.Fatalf("discard after batch: %v", err)
	}
}

func TestApprove_MissingCredentialBlocks(t *testing.T) {
	w := NewWorkflow(&fakeWriter{}, repository.NewInMemoryCredentialRepository())
	w.Stage(stagedReports())
	err := w.Approve(context.Background(), models.PublishConfig{}, nil)
	if !errors.Is(err, models.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	for _, r := range w.Reports() {
		if r.Status != models.ReportStatusPending {
			t.Fatalf("blocked approval must not touch statuses, got %s", r.Status)
		}
	}
}

func TestApprove_PersistsAndReusesCredential(t *testing.T) {
	creds := repository.NewInMemoryCredentialRepository()
	w := NewWorkflow(&fakeWriter{}, creds)
	w.Stage(stagedReports())

	if err := w.Approve(context.Background(), models.PublishConfig{Token: "tok"}, nil); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	cached, _ := creds.LoadToken(context.Background())
	if cached != "tok" {
		t.Fatalf("credential not persisted, got %q", cached)
	}

	// A later batch may omit the token and rely on the cache.
	w.Stage(stagedReports())
	if err := w.Approve(context.Background(), models.PublishConfig{}, nil); err != nil {
		t.Fatalf("approve with cached credential failed: %v", err)
	}
}

func TestEditOnlyWhilePending(t *testing.T) {
	w := NewWorkflow(&fakeWriter{}, repository.NewInMemoryCredentialRepository())
	w.Stage(stagedReports())

	name := "renamed.md"
	if err := w.Edit(0, &name, nil); err != nil {
		t.Fatalf("edit of pending report failed: %v", err)
	}
	if got, _ := w.Get(0); got.FileName != "renamed.md" {
		t.Fatalf("edit not applied: %+v", got)
	}

	if err := w.Approve(context.Background(), models.PublishConfig{Token: "tok"}, nil); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := w.Edit(0, &name, nil); !errors.Is(err, models.ErrReportNotPending) {
		t.Fatalf("expected ErrReportNotPending after upload, got %v", err)
	}
}

func TestDiscardClosesQueue(t *testing.T) {
	w := NewWorkflow(&fakeWriter{}, repository.NewInMemoryCredentialRepository())
	w.Stage(stagedReports()[:1])
	if w.Empty() {
		t.Fatal("queue should hold one report")
	}
	if err := w.Discard(0); err != nil {
		t.Fatalf("discard failed: %v", err)
	}
	if !w.Empty() {
		t.Fatal("queue must close when the last report is discarded")
	}
	if err := w.Discard(0); !errors.Is(err, models.ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}
