package pages

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rstamps01/image-to-text/internal/errs"
	"github.com/rstamps01/image-to-text/internal/models"
	"github.com/rstamps01/image-to-text/internal/recognize"
	"github.com/rstamps01/image-to-text/internal/store"
	"github.com/rstamps01/image-to-text/pkg/logger"
	"github.com/rstamps01/image-to-text/pkg/queue"
	"github.com/rstamps01/image-to-text/pkg/storage"
)

// mapRecognizer resolves results by the raw image bytes, so tests can
// script a distinct outcome per uploaded page.
type mapRecognizer struct {
	results map[string]*recognize.OCRResult
	errors  map[string]error
	calls   int
}

func (m *mapRecognizer) Recognize(ctx context.Context, image []byte) (*recognize.OCRResult, error) {
	m.calls++
	key := string(image)
	if err, ok := m.errors[key]; ok {
		return nil, err
	}
	if res, ok := m.results[key]; ok {
		return res, nil
	}
	return nil, recognize.Permanent("unscripted image", nil)
}

type recordingQueue struct {
	tasks []*queue.Task
}

func (q *recordingQueue) Enqueue(ctx context.Context, task *queue.Task) error {
	q.tasks = append(q.tasks, task)
	return nil
}

func newTestService(rec Recognizer) (Service, *store.MemoryStore, *recordingQueue) {
	st := store.NewMemoryStore()
	q := &recordingQueue{}
	svc := NewService(st, storage.NewMemoryStorage(), rec, q, logger.NewTestLogger(), nil)
	return svc, st, q
}

func mustProject(t *testing.T, svc Service, owner string) *models.Project {
	t.Helper()
	project, err := svc.CreateProject(context.Background(), owner, "Field Notes 1897")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return project
}

func mustUpload(t *testing.T, svc Service, owner, projectID, filename, image string) *models.Page {
	t.Helper()
	page, err := svc.UploadPage(context.Background(), owner, projectID, filename, strings.NewReader(image))
	if err != nil {
		t.Fatalf("UploadPage(%s): %v", filename, err)
	}
	return page
}

func TestUploadPageEnqueuesPending(t *testing.T) {
	rec := &mapRecognizer{}
	svc, _, q := newTestService(rec)
	project := mustProject(t, svc, "alice")

	page := mustUpload(t, svc, "alice", project.ID, "scan_001.jpg", "img-1")

	if page.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", page.Status)
	}
	if page.LateAdded {
		t.Error("page uploaded before first reorder should not be late-added")
	}
	if len(q.tasks) != 1 {
		t.Fatalf("enqueued %d tasks, want 1", len(q.tasks))
	}
	if q.tasks[0].Payload["pageId"] != page.ID {
		t.Errorf("task pageId = %q, want %q", q.tasks[0].Payload["pageId"], page.ID)
	}

	got, err := svc.GetProject(context.Background(), "alice", project.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", got.TotalPages)
	}
}

func TestUploadPageRejectsUnsupportedType(t *testing.T) {
	svc, _, _ := newTestService(&mapRecognizer{})
	project := mustProject(t, svc, "alice")

	_, err := svc.UploadPage(context.Background(), "alice", project.ID, "notes.pdf", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected error for unsupported file type")
	}
}

func TestOwnershipEnforced(t *testing.T) {
	svc, _, _ := newTestService(&mapRecognizer{})
	project := mustProject(t, svc, "alice")

	if _, err := svc.GetProject(context.Background(), "mallory", project.ID); !errors.Is(err, errs.ErrUnauthorized) {
		t.Errorf("GetProject as non-owner = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.UploadPage(context.Background(), "mallory", project.ID, "p.jpg", strings.NewReader("x")); !errors.Is(err, errs.ErrUnauthorized) {
		t.Errorf("UploadPage as non-owner = %v, want ErrUnauthorized", err)
	}
}

func TestProcessPageCompletes(t *testing.T) {
	rec := &mapRecognizer{results: map[string]*recognize.OCRResult{
		"img-1": {Text: "It was a dark and stormy night.\n\n42", Label: "42", Confidence: 0.93},
	}}
	svc, _, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")
	page := mustUpload(t, svc, "alice", project.ID, "scan_001.jpg", "img-1")

	got, err := svc.ProcessPage(context.Background(), "alice", page.ID)
	if err != nil {
		t.Fatalf("ProcessPage: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.Label == nil || *got.Label != "42" {
		t.Errorf("label = %v, want 42", got.Label)
	}
	if got.SortKey == nil || *got.SortKey != 42 {
		t.Errorf("sortKey = %v, want 42", got.SortKey)
	}
	if got.Error != "" {
		t.Errorf("error = %q, want empty", got.Error)
	}

	proj, _ := svc.GetProject(context.Background(), "alice", project.ID)
	if proj.ProcessedPages != 1 {
		t.Errorf("ProcessedPages = %d, want 1", proj.ProcessedPages)
	}
}

func TestProcessPageFallsBackToTextForLabel(t *testing.T) {
	rec := &mapRecognizer{results: map[string]*recognize.OCRResult{
		"img-1": {Text: "chapter heading\n\nxiv\n", Confidence: 0.8},
	}}
	svc, _, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")
	page := mustUpload(t, svc, "alice", project.ID, "a.jpg", "img-1")

	got, err := svc.ProcessPage(context.Background(), "alice", page.ID)
	if err != nil {
		t.Fatalf("ProcessPage: %v", err)
	}
	if got.Label == nil || *got.Label != "xiv" {
		t.Fatalf("label = %v, want xiv from full-text fallback", got.Label)
	}
	if got.SortKey == nil || *got.SortKey != 14 {
		t.Errorf("sortKey = %v, want 14", got.SortKey)
	}
}

func TestProcessPageRecordsFailure(t *testing.T) {
	rec := &mapRecognizer{errors: map[string]error{
		"img-1": recognize.Permanent("image too blurry", nil),
	}}
	svc, _, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")
	page := mustUpload(t, svc, "alice", project.ID, "a.jpg", "img-1")

	got, err := svc.ProcessPage(context.Background(), "alice", page.ID)
	if err != nil {
		t.Fatalf("recognition failure must not surface as an error, got %v", err)
	}
	if got.Status != models.StatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if got.Error == "" {
		t.Error("failed page should carry the failure message")
	}

	proj, _ := svc.GetProject(context.Background(), "alice", project.ID)
	if proj.ProcessedPages != 0 {
		t.Errorf("ProcessedPages = %d, want 0 after failure", proj.ProcessedPages)
	}
}

func TestProcessCompletedPageRejected(t *testing.T) {
	rec := &mapRecognizer{results: map[string]*recognize.OCRResult{
		"img-1": {Text: "7", Label: "7", Confidence: 0.9},
	}}
	svc, _, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")
	page := mustUpload(t, svc, "alice", project.ID, "a.jpg", "img-1")

	if _, err := svc.ProcessPage(context.Background(), "alice", page.ID); err != nil {
		t.Fatalf("first ProcessPage: %v", err)
	}
	_, err := svc.ProcessPage(context.Background(), "alice", page.ID)
	if !errors.Is(err, errs.ErrInvalidTransition) {
		t.Errorf("reprocessing completed page = %v, want ErrInvalidTransition", err)
	}
}

func TestFailedPageCanBeReprocessed(t *testing.T) {
	rec := &mapRecognizer{errors: map[string]error{
		"img-1": recognize.Permanent("smudged", nil),
	}}
	svc, _, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")
	page := mustUpload(t, svc, "alice", project.ID, "a.jpg", "img-1")

	got, _ := svc.ProcessPage(context.Background(), "alice", page.ID)
	if got.Status != models.StatusFailed {
		t.Fatalf("setup: status = %q, want failed", got.Status)
	}

	// The operator rescans; the same page now recognizes cleanly.
	delete(rec.errors, "img-1")
	rec.results = map[string]*recognize.OCRResult{
		"img-1": {Text: "Page 12", Label: "12", Confidence: 0.88},
	}

	got, err := svc.ProcessPage(context.Background(), "alice", page.ID)
	if err != nil {
		t.Fatalf("reprocess failed page: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.Error != "" {
		t.Errorf("error = %q, want cleared on success", got.Error)
	}
}

func TestRetryFailedReportsPerPage(t *testing.T) {
	rec := &mapRecognizer{
		results: map[string]*recognize.OCRResult{
			"ok-1": {Text: "1", Label: "1", Confidence: 0.9},
			"ok-2": {Text: "2", Label: "2", Confidence: 0.9},
			"ok-3": {Text: "3", Label: "3", Confidence: 0.9},
		},
		errors: map[string]error{
			"bad-1": recognize.Permanent("torn page", nil),
			"bad-2": recognize.Permanent("water damage", nil),
		},
	}
	svc, _, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")

	for _, img := range []string{"ok-1", "bad-1", "ok-2", "bad-2", "ok-3"} {
		mustUpload(t, svc, "alice", project.ID, img+".jpg", img)
	}

	report, err := svc.RetryFailed(context.Background(), "alice", project.ID)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if len(report.Results) != 5 {
		t.Fatalf("got %d results, want one per page", len(report.Results))
	}
	if report.Succeeded != 3 {
		t.Errorf("Succeeded = %d, want 3", report.Succeeded)
	}
	failures := 0
	for _, r := range report.Results {
		if !r.Success {
			failures++
			if r.Error == "" {
				t.Errorf("failed result for %s has no error message", r.PageID)
			}
		}
	}
	if failures != 2 {
		t.Errorf("got %d failures, want 2", failures)
	}

	proj, _ := svc.GetProject(context.Background(), "alice", project.ID)
	if proj.ProcessedPages != 3 {
		t.Errorf("ProcessedPages = %d, want 3", proj.ProcessedPages)
	}
}

func TestRetryFailedHonorsCancellation(t *testing.T) {
	rec := &mapRecognizer{results: map[string]*recognize.OCRResult{
		"img-1": {Text: "1", Label: "1", Confidence: 0.9},
		"img-2": {Text: "2", Label: "2", Confidence: 0.9},
	}}
	svc, _, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")
	mustUpload(t, svc, "alice", project.ID, "a.jpg", "img-1")
	mustUpload(t, svc, "alice", project.ID, "b.jpg", "img-2")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.RetryFailed(ctx, "alice", project.ID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if report == nil {
		t.Fatal("cancelled batch should still return the partial report")
	}
	if len(report.Results) != 0 {
		t.Errorf("pre-cancelled context processed %d pages, want 0", len(report.Results))
	}
	if rec.calls != 0 {
		t.Errorf("recognizer called %d times after cancellation, want 0", rec.calls)
	}
}

func TestReorderAndExport(t *testing.T) {
	rec := &mapRecognizer{results: map[string]*recognize.OCRResult{
		"img-a": {Text: "third page body", Label: "12", Confidence: 0.9},
		"img-b": {Text: "first page body", Label: "3", Confidence: 0.9},
		"img-c": {Text: "unlabeled scribbles", Confidence: 0.4},
	}}
	svc, _, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")

	for _, img := range []string{"img-a", "img-b", "img-c"} {
		p := mustUpload(t, svc, "alice", project.ID, img+".jpg", img)
		if _, err := svc.ProcessPage(context.Background(), "alice", p.ID); err != nil {
			t.Fatalf("ProcessPage(%s): %v", img, err)
		}
	}

	ordered, err := svc.Reorder(context.Background(), "alice", project.ID)
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if len(ordered) != 3 {
		t.Fatalf("Reorder returned %d pages, want 3", len(ordered))
	}
	// Keyed pages by sort key, unkeyed after.
	if ordered[0].Label == nil || *ordered[0].Label != "3" {
		t.Errorf("first page label = %v, want 3", ordered[0].Label)
	}
	if ordered[1].Label == nil || *ordered[1].Label != "12" {
		t.Errorf("second page label = %v, want 12", ordered[1].Label)
	}
	if ordered[2].Label != nil {
		t.Errorf("third page should be the unkeyed one, got label %v", *ordered[2].Label)
	}

	export, err := svc.Export(context.Background(), "alice", project.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(export.Pages) != 3 {
		t.Fatalf("export has %d pages, want 3", len(export.Pages))
	}
	want := "first page body\n\nthird page body\n\nunlabeled scribbles"
	if export.Text != want {
		t.Errorf("export text = %q, want %q", export.Text, want)
	}
}

func TestExportWithoutReorderKeepsUploadOrder(t *testing.T) {
	rec := &mapRecognizer{results: map[string]*recognize.OCRResult{
		"img-a": {Text: "first upload", Label: "12", Confidence: 0.9},
		"img-b": {Text: "second upload", Confidence: 0.5},
		"img-c": {Text: "third upload", Label: "3", Confidence: 0.9},
	}}
	svc, _, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")

	// No reorder ever happens: positions must still be unique and follow
	// upload order.
	for _, img := range []string{"img-a", "img-b", "img-c"} {
		p := mustUpload(t, svc, "alice", project.ID, img+".jpg", img)
		if _, err := svc.ProcessPage(context.Background(), "alice", p.ID); err != nil {
			t.Fatalf("ProcessPage(%s): %v", img, err)
		}
	}

	export, err := svc.Export(context.Background(), "alice", project.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	wantTexts := []string{"first upload", "second upload", "third upload"}
	seen := make(map[int]bool)
	for i, p := range export.Pages {
		if p.Text != wantTexts[i] {
			t.Errorf("export position %d = %q, want %q", i, p.Text, wantTexts[i])
		}
		if seen[p.Position] {
			t.Errorf("duplicate export position %d", p.Position)
		}
		seen[p.Position] = true
		if p.Position != i {
			t.Errorf("page %d has position %d, want %d", i, p.Position, i)
		}
	}
}

func TestLatePagePlacedIncrementally(t *testing.T) {
	rec := &mapRecognizer{results: map[string]*recognize.OCRResult{
		"img-10": {Text: "ten", Label: "10", Confidence: 0.9},
		"img-20": {Text: "twenty", Label: "20", Confidence: 0.9},
		"img-30": {Text: "thirty", Label: "30", Confidence: 0.9},
		"img-15": {Text: "fifteen", Label: "15", Confidence: 0.9},
	}}
	svc, _, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")

	for _, img := range []string{"img-10", "img-20", "img-30"} {
		p := mustUpload(t, svc, "alice", project.ID, img+".jpg", img)
		if _, err := svc.ProcessPage(context.Background(), "alice", p.ID); err != nil {
			t.Fatalf("ProcessPage(%s): %v", img, err)
		}
	}
	if _, err := svc.Reorder(context.Background(), "alice", project.ID); err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	late := mustUpload(t, svc, "alice", project.ID, "img-15.jpg", "img-15")
	if !late.LateAdded {
		t.Fatal("page uploaded after reorder should be late-added")
	}

	got, err := svc.ProcessPage(context.Background(), "alice", late.ID)
	if err != nil {
		t.Fatalf("ProcessPage(late): %v", err)
	}
	if got.SortPosition != 1 {
		t.Errorf("late page position = %d, want 1", got.SortPosition)
	}
	if got.NeedsReview {
		t.Error("keyed placement between keyed anchors should be confident")
	}

	export, _ := svc.Export(context.Background(), "alice", project.ID)
	wantOrder := []string{"ten", "fifteen", "twenty", "thirty"}
	for i, w := range wantOrder {
		if export.Pages[i].Text != w {
			t.Errorf("export position %d = %q, want %q", i, export.Pages[i].Text, w)
		}
	}
}

func TestUnkeyedLatePageFlaggedForReview(t *testing.T) {
	rec := &mapRecognizer{results: map[string]*recognize.OCRResult{
		"img-10": {Text: "ten", Label: "10", Confidence: 0.9},
		"img-x":  {Text: "no number anywhere here", Confidence: 0.5},
	}}
	svc, _, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")

	p := mustUpload(t, svc, "alice", project.ID, "img-10.jpg", "img-10")
	if _, err := svc.ProcessPage(context.Background(), "alice", p.ID); err != nil {
		t.Fatalf("ProcessPage: %v", err)
	}
	if _, err := svc.Reorder(context.Background(), "alice", project.ID); err != nil {
		t.Fatalf("Reorder: %v", err)
	}

	late := mustUpload(t, svc, "alice", project.ID, "mystery.jpg", "img-x")
	got, err := svc.ProcessPage(context.Background(), "alice", late.ID)
	if err != nil {
		t.Fatalf("ProcessPage(late): %v", err)
	}
	if !got.NeedsReview {
		t.Error("unkeyed late page should be flagged for review")
	}

	// A flagged page still exports; review is advisory.
	export, _ := svc.Export(context.Background(), "alice", project.ID)
	if len(export.Pages) != 2 {
		t.Fatalf("export has %d pages, want 2", len(export.Pages))
	}
	if !export.Pages[1].NeedsReview {
		t.Error("export should carry the review flag")
	}
}

func TestRetryAttemptsClampsNonPositive(t *testing.T) {
	cases := []struct {
		in   int
		want uint
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{3, 3},
	}
	for _, tc := range cases {
		if got := retryAttempts(tc.in); got != tc.want {
			t.Errorf("retryAttempts(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRecountReconcilesCounter(t *testing.T) {
	rec := &mapRecognizer{results: map[string]*recognize.OCRResult{
		"img-1": {Text: "1", Label: "1", Confidence: 0.9},
		"img-2": {Text: "2", Label: "2", Confidence: 0.9},
	}}
	svc, st, _ := newTestService(rec)
	project := mustProject(t, svc, "alice")

	for _, img := range []string{"img-1", "img-2"} {
		p := mustUpload(t, svc, "alice", project.ID, img+".jpg", img)
		if _, err := svc.ProcessPage(context.Background(), "alice", p.ID); err != nil {
			t.Fatalf("ProcessPage(%s): %v", img, err)
		}
	}

	// Simulate counter drift.
	if err := st.SetProcessed(context.Background(), project.ID, 7); err != nil {
		t.Fatalf("SetProcessed: %v", err)
	}

	n, err := svc.Recount(context.Background(), "alice", project.ID)
	if err != nil {
		t.Fatalf("Recount: %v", err)
	}
	if n != 2 {
		t.Errorf("Recount = %d, want 2", n)
	}
	proj, _ := svc.GetProject(context.Background(), "alice", project.ID)
	if proj.ProcessedPages != 2 {
		t.Errorf("ProcessedPages = %d after recount, want 2", proj.ProcessedPages)
	}
}
