package publish

import (
	"context"
	"log"
	"sync"

	"github.com/ecopulse/ecopulse/models"
	"github.com/ecopulse/ecopulse/repository"
)

// ProgressFunc observes one report's status change during an upload batch.
type ProgressFunc func(index int, report models.GeneratedReport)

// Workflow is the staging area for generated reports pending human approval.
// Reports enter as pending, may be edited or discarded while pending, and are
// uploaded strictly one at a time on approval so per-item progress stays
// inspectable and the read-then-conditional-write protocol never races
// against itself on the same path.
type Workflow struct {
	mu        sync.Mutex
	reports   []models.GeneratedReport
	uploading bool

	writer ContentWriter
	creds  repository.CredentialRepository
	logger *log.Logger
}

func NewWorkflow(writer ContentWriter, creds repository.CredentialRepository) *Workflow {
	return &Workflow{
		writer: writer,
		creds:  creds,
		logger: log.New(log.Writer(), "[PUBLISH] ", log.LstdFlags),
	}
}

// Stage seeds the review queue. Any previous queue is replaced; statuses are
// forced to pending. Staging is rejected while an upload batch is running:
// the batch walks the queue by position, so replacing it mid-flight would
// attach outcomes to the wrong reports.
func (w *Workflow) Stage(reports []models.GeneratedReport) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.uploading {
		return models.ErrPublishInProgress
	}
	w.reports = make([]models.GeneratedReport, len(reports))
	for i, r := range reports {
		r.Status = models.ReportStatusPending
		r.ErrorMessage = ""
		w.reports[i] = r
	}
	return nil
}

// Reports returns a copy of the queue in staging order.
func (w *Workflow) Reports() []models.GeneratedReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.GeneratedReport, len(w.reports))
	copy(out, w.reports)
	return out
}

// Get returns the report at index.
func (w *Workflow) Get(index int) (models.GeneratedReport, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index < 0 || index >= len(w.reports) {
		return models.GeneratedReport{}, models.ErrReportNotFound
	}
	return w.reports[index], nil
}

// Edit updates the file name and/or content of a staged report. Only pending
// reports may be edited.
func (w *Workflow) Edit(index int, fileName, content *string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.uploading {
		return models.ErrPublishInProgress
	}
	if index < 0 || index >= len(w.reports) {
		return models.ErrReportNotFound
	}
	if w.reports[index].Status != models.ReportStatusPending {
		return models.ErrReportNotPending
	}
	if fileName != nil {
		w.reports[index].FileName = *fileName
	}
	if content != nil {
		w.reports[index].Content = *content
	}
	return nil
}

// Discard removes a report from the queue. The workflow closes (queue empty)
// when the last one goes. Like Edit and Stage, it is rejected while a batch
// is uploading so the batch's positional walk stays aligned with the queue.
func (w *Workflow) Discard(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.uploading {
		return models.ErrPublishInProgress
	}
	if index < 0 || index >= len(w.reports) {
		return models.ErrReportNotFound
	}
	w.reports = append(w.reports[:index], w.reports[index+1:]...)
	return nil
}

// Empty reports whether the queue is closed.
func (w *Workflow) Empty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.reports) == 0
}

// Approve drives the upload batch. It requires a non-empty credential (the
// supplied one, or the cached one when cfg.Token is empty), persists the
// credential for future sessions, then uploads the reports sequentially. Each
// report moves pending -> uploading -> success/error and onProgress fires
// after every single transition so partial progress is visible. A failed item
// never aborts the rest of the batch, and nothing is retried automatically: a
// fresh approval re-drives everything that did not succeed.
func (w *Workflow) Approve(ctx context.Context, cfg models.PublishConfig, onProgress ProgressFunc) error {
	w.mu.Lock()
	if w.uploading {
		w.mu.Unlock()
		return models.ErrPublishInProgress
	}
	w.uploading = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.uploading = false
		w.mu.Unlock()
	}()

	if cfg.Token == "" && w.creds != nil {
		cached, err := w.creds.LoadToken(ctx)
		if err != nil {
			w.logger.Printf("credential load failed: %v", err)
		}
		cfg.Token = cached
	}
	if cfg.Token == "" {
		return models.ErrMissingCredential
	}
	if w.creds != nil {
		if err := w.creds.SaveToken(ctx, cfg.Token); err != nil {
			w.logger.Printf("credential save failed: %v", err)
		}
	}

	for i := 0; ; i++ {
		report, ok := w.takeForUpload(i)
		if !ok {
			break
		}
		if report.Status != models.ReportStatusUploading {
			continue // already succeeded in an earlier batch
		}
		w.notify(onProgress, i, report)

		err := w.writer.Upsert(ctx, cfg, report.FileName, report.Content)
		report = w.settle(i, err)
		w.notify(onProgress, i, report)
		if err != nil {
			w.logger.Printf("upload %s failed: %v", report.FileName, err)
		}
	}
	return nil
}

// takeForUpload transitions the report at index to uploading and returns a
// copy. Reports that already succeeded are left alone. ok is false past the
// end of the queue.
func (w *Workflow) takeForUpload(index int) (models.GeneratedReport, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index >= len(w.reports) {
		return models.GeneratedReport{}, false
	}
	if w.reports[index].Status == models.ReportStatusSuccess {
		return w.reports[index], true
	}
	w.reports[index].Status = models.ReportStatusUploading
	w.reports[index].ErrorMessage = ""
	return w.reports[index], true
}

// settle records the outcome of one upload and returns the updated copy.
func (w *Workflow) settle(index int, err error) models.GeneratedReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.reports[index].Status = models.ReportStatusError
		w.reports[index].ErrorMessage = err.Error()
	} else {
		w.reports[index].Status = models.ReportStatusSuccess
	}
	return w.reports[index]
}

func (w *Workflow) notify(onProgress ProgressFunc, index int, report models.GeneratedReport) {
	if onProgress != nil {
		onProgress(index, report)
	}
}
