package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/csg4786/transcript-insights/internal/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "insights.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testTranscript(t *testing.T, s *Store) types.Transcript {
	t.Helper()
	tr, err := s.CreateTranscript(context.Background(), types.Transcript{Text: "hello world"})
	if err != nil {
		t.Fatalf("create transcript: %v", err)
	}
	return tr
}

func candidate(title, description, insightType, quote string, confidence float64) types.Insight {
	return types.Insight{
		Title:       title,
		Description: description,
		Type:        insightType,
		Evidence:    []types.Evidence{{Quote: quote}},
		Confidence:  confidence,
		Status:      types.InsightStatusNew,
	}
}

func TestCreateAndGetTranscript(t *testing.T) {
	s := testStore(t)
	tr := testTranscript(t, s)

	got, err := s.GetTranscript(context.Background(), tr.ID)
	if err != nil {
		t.Fatalf("get transcript: %v", err)
	}
	if got.Status != types.StatusUploaded {
		t.Fatalf("status = %q, want uploaded", got.Status)
	}
	if got.Text != "hello world" {
		t.Fatalf("text = %q", got.Text)
	}

	if _, err := s.GetTranscript(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing transcript: got %v, want ErrNotFound", err)
	}
}

func TestUpdateTranscriptStatus(t *testing.T) {
	s := testStore(t)
	tr := testTranscript(t, s)
	ctx := context.Background()

	if err := s.UpdateTranscriptStatus(ctx, tr.ID, types.StatusAnalyzingPass1); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, _ := s.GetTranscript(ctx, tr.ID)
	if got.Status != types.StatusAnalyzingPass1 || got.ProcessedAt != nil {
		t.Fatalf("non-terminal update: status=%q processed=%v", got.Status, got.ProcessedAt)
	}

	if err := s.UpdateTranscriptStatus(ctx, tr.ID, types.StatusCompleted); err != nil {
		t.Fatalf("update terminal status: %v", err)
	}
	got, _ = s.GetTranscript(ctx, tr.ID)
	if got.Status != types.StatusCompleted || got.ProcessedAt == nil {
		t.Fatal("terminal status should stamp processed_at")
	}

	if err := s.UpdateTranscriptStatus(ctx, "missing", types.StatusFailed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing transcript: got %v, want ErrNotFound", err)
	}
}

func TestUpdateTranscriptContext(t *testing.T) {
	s := testStore(t)
	tr := testTranscript(t, s)
	ctx := context.Background()

	if err := s.UpdateTranscriptContext(ctx, tr.ID, "sales_demo", 0.85); err != nil {
		t.Fatalf("update context: %v", err)
	}
	got, _ := s.GetTranscript(ctx, tr.ID)
	if got.ContextTheme != "sales_demo" || got.ContextConfidence != 0.85 {
		t.Fatalf("context = %q/%v", got.ContextTheme, got.ContextConfidence)
	}
}

func TestPersistBatchIdempotent(t *testing.T) {
	s := testStore(t)
	tr := testTranscript(t, s)
	ctx := context.Background()

	batch := []types.Insight{
		candidate("Slow checkout", "checkout takes too long", types.TypePain, "it took forever to pay", 0.8),
		candidate("Wants dark mode", "user asked for dark mode", types.TypeFeatureRequest, "please add dark mode", 0.9),
	}

	first, err := s.PersistBatch(ctx, tr.ID, batch)
	if err != nil {
		t.Fatalf("first persist: %v", err)
	}
	if first.Saved != 2 || first.Skipped != 0 || first.Failed != 0 {
		t.Fatalf("first persist: %+v", first)
	}

	second, err := s.PersistBatch(ctx, tr.ID, batch)
	if err != nil {
		t.Fatalf("second persist: %v", err)
	}
	if second.Saved != 0 || second.Skipped != 2 {
		t.Fatalf("second persist should skip everything: %+v", second)
	}

	stored, err := s.InsightsByTranscript(ctx, tr.ID)
	if err != nil {
		t.Fatalf("load insights: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d insights, want 2", len(stored))
	}
	for _, ins := range stored {
		if ins.Confidence < 0 || ins.Confidence > 1 {
			t.Fatalf("confidence out of range: %v", ins.Confidence)
		}
		if len(ins.Evidence) == 0 {
			t.Fatal("stored insight has no evidence")
		}
		if ins.ContentHash == "" {
			t.Fatal("stored insight has no content hash")
		}
	}
}

func TestPersistBatchInBatchDuplicate(t *testing.T) {
	s := testStore(t)
	tr := testTranscript(t, s)

	// same description+evidence twice within one batch: first writer wins
	batch := []types.Insight{
		candidate("Slow checkout", "checkout takes too long", types.TypePain, "it took forever to pay", 0.8),
		candidate("Checkout latency", "Checkout takes too long", types.TypeFeedback, "  it took forever to pay ", 0.6),
	}

	res, err := s.PersistBatch(context.Background(), tr.ID, batch)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if res.Saved != 1 || res.Skipped != 1 {
		t.Fatalf("expected 1 saved / 1 skipped, got %+v", res)
	}
}

func TestReanalysisKeepsOriginalType(t *testing.T) {
	s := testStore(t)
	tr := testTranscript(t, s)
	ctx := context.Background()

	run1 := []types.Insight{
		candidate("Slow checkout", "checkout takes too long", types.TypePain, "it took forever to pay", 0.8),
	}
	if _, err := s.PersistBatch(ctx, tr.ID, run1); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// second run relabels the same underlying text
	run2 := []types.Insight{
		candidate("Checkout feedback", "checkout takes too long", types.TypeFeedback, "it took forever to pay", 0.5),
	}
	res, err := s.PersistBatch(ctx, tr.ID, run2)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if res.Saved != 0 || res.Skipped != 1 {
		t.Fatalf("relabeled insight should be skipped: %+v", res)
	}

	stored, _ := s.InsightsByTranscript(ctx, tr.ID)
	if len(stored) != 1 {
		t.Fatalf("stored %d insights, want 1", len(stored))
	}
	if stored[0].Type != types.TypePain {
		t.Fatalf("stored type = %q, want original %q", stored[0].Type, types.TypePain)
	}
}

func TestExistingHashes(t *testing.T) {
	s := testStore(t)
	tr := testTranscript(t, s)
	ctx := context.Background()

	batch := []types.Insight{
		candidate("A", "description one", types.TypePain, "quote one", 0.8),
	}
	if _, err := s.PersistBatch(ctx, tr.ID, batch); err != nil {
		t.Fatalf("persist: %v", err)
	}

	hashes, err := s.ExistingHashes(ctx, tr.ID)
	if err != nil {
		t.Fatalf("existing hashes: %v", err)
	}
	want := ContentHash("description one", "quote one")
	if _, ok := hashes[want]; !ok || len(hashes) != 1 {
		t.Fatalf("hashes = %v, want {%s}", hashes, want)
	}
}

func TestCreateInsightUniqueConstraint(t *testing.T) {
	s := testStore(t)
	tr := testTranscript(t, s)
	ctx := context.Background()

	ins := candidate("A", "description", types.TypePain, "quote", 0.5)
	ins.ID = "i1"
	ins.TranscriptID = tr.ID
	ins.ContentHash = ContentHash(ins.Description, "quote")
	if err := s.CreateInsight(ctx, ins); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	ins.ID = "i2"
	if err := s.CreateInsight(ctx, ins); !errors.Is(err, ErrDuplicateHash) {
		t.Fatalf("second insert: got %v, want ErrDuplicateHash", err)
	}
}

func TestAppendActivity(t *testing.T) {
	s := testStore(t)
	tr := testTranscript(t, s)
	ctx := context.Background()

	for _, st := range []types.TranscriptStatus{
		types.StatusUploaded, types.StatusAnalyzingPass1, types.StatusCompleted,
	} {
		if err := s.AppendActivity(ctx, tr.ID, st, "test"); err != nil {
			t.Fatalf("append activity: %v", err)
		}
	}

	activity, err := s.Activity(ctx, tr.ID)
	if err != nil {
		t.Fatalf("load activity: %v", err)
	}
	want := []types.TranscriptStatus{
		types.StatusUploaded, types.StatusAnalyzingPass1, types.StatusCompleted,
	}
	if len(activity) != len(want) {
		t.Fatalf("activity = %v", activity)
	}
	for i := range want {
		if activity[i] != want[i] {
			t.Fatalf("activity[%d] = %q, want %q", i, activity[i], want[i])
		}
	}
}

func TestPersistBatchKeepsDuplicateAnnotations(t *testing.T) {
	s := testStore(t)
	tr := testTranscript(t, s)
	ctx := context.Background()

	a := candidate("A", "first finding", types.TypePain, "quote a", 0.8)
	a.ID = "a"
	b := candidate("B", "second finding", types.TypePain, "quote b", 0.7)
	b.ID = "b"
	b.IsDuplicate = true
	b.DuplicateOf = "a"
	b.DuplicateSimilarity = 0.95

	if _, err := s.PersistBatch(ctx, tr.ID, []types.Insight{a, b}); err != nil {
		t.Fatalf("persist: %v", err)
	}

	stored, _ := s.InsightsByTranscript(ctx, tr.ID)
	var flagged *types.Insight
	for i := range stored {
		if stored[i].ID == "b" {
			flagged = &stored[i]
		}
	}
	if flagged == nil {
		t.Fatal("annotated insight not stored")
	}
	if !flagged.IsDuplicate || flagged.DuplicateOf != "a" || flagged.DuplicateSimilarity != 0.95 {
		t.Fatalf("annotations lost: %+v", flagged)
	}
}
