package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docmock/internal/classify"
	"github.com/dgallion1/docmock/internal/config"
	"github.com/dgallion1/docmock/internal/extract"
	"github.com/dgallion1/docmock/internal/store"
)

const ordersDoc = "# 4.1 API Create Order\n\n" +
	"POST /v1/orders\n\n" +
	"# 4.2 API Get Order\n\n" +
	"GET /v1/orders/{id}\n"

const createAnswer = `[{"title":"Create Order","method":"POST",` +
	`"requestExample":{"body":{"orderId":"1"}},"responseExample":{"body":{"status":"OK"}},` +
	`"requiredFields":["orderId"]}]`

const getAnswer = `[{"title":"Get Order","method":"GET",` +
	`"requestExample":{"query":{"id":"1"}},"responseExample":{"body":{"id":"1"}}}]`

type fakeClient struct {
	mu      sync.Mutex
	answer  func(prompt string) (string, error)
	prompts []string
}

func (f *fakeClient) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.answer(prompt)
}

func (f *fakeClient) Model() string { return "fake" }

func ordersClient() *fakeClient {
	return &fakeClient{answer: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "Get Order"):
			return getAnswer, nil
		case strings.Contains(prompt, "Create Order"):
			return createAnswer, nil
		}
		return "[]", nil
	}}
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "pipeline.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestWorker(st Repository, client extract.Client) *Worker {
	log := slog.New(slog.DiscardHandler)
	return NewWorker(extract.NewExtractor(client, log), st, log, classify.DefaultRules(), WindowConfig{Tokens: 6000, Overlap: 300}, 2)
}

func TestWorker_ChunkMode(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	client := ordersClient()
	w := newTestWorker(st, client)

	job := NewJob("file-1", "orders.md", []byte(ordersDoc))
	w.Process(ctx, job)

	assert.Equal(t, store.StatusCompleted, job.Status)
	assert.Len(t, client.prompts, 2)

	defs, err := st.ListDefinitions(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	byMethod := map[string]string{}
	for _, d := range defs {
		byMethod[d.Method] = d.APIPath
		assert.Equal(t, "orders.md", d.SourceFileName)
		assert.Equal(t, "/mock"+d.APIPath, d.MockURL)
	}
	assert.Equal(t, "/v1/orders", byMethod["POST"])
	assert.Equal(t, "/v1/orders/{id}", byMethod["GET"])

	rec, err := st.GetUploadedFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, rec.Status)
	assert.Equal(t, 2, rec.GeneratedCount)
	assert.NotNil(t, rec.ProcessedAt)

	stats, err := st.LogStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.UploadMock)
}

func TestWorker_ReuploadReplacesDefinitions(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	w := newTestWorker(st, ordersClient())

	w.Process(ctx, NewJob("file-1", "orders.md", []byte(ordersDoc)))
	w.Process(ctx, NewJob("file-2", "orders.md", []byte(ordersDoc)))

	defs, err := st.ListDefinitions(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	for _, d := range defs {
		assert.Equal(t, "file-2", d.SourceFileID)
	}

	logs, err := st.RecentLogs(ctx, 10)
	require.NoError(t, err)
	var types []string
	for _, l := range logs {
		types = append(types, l.Type)
	}
	assert.Contains(t, types, store.LogDocDelete)
}

func TestWorker_FailedReuploadKeepsDefinitions(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	newTestWorker(st, ordersClient()).Process(ctx, NewJob("file-1", "orders.md", []byte(ordersDoc)))

	failing := &fakeClient{answer: func(string) (string, error) { return "", errors.New("model refused") }}
	job := NewJob("file-2", "orders.md", []byte(ordersDoc))
	newTestWorker(st, failing).Process(ctx, job)
	assert.Equal(t, store.StatusFailed, job.Status)

	empty := &fakeClient{answer: func(string) (string, error) { return "[]", nil }}
	job = NewJob("file-3", "orders.md", []byte(ordersDoc))
	newTestWorker(st, empty).Process(ctx, job)
	assert.Equal(t, store.StatusCompleted, job.Status)

	defs, err := st.ListDefinitions(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	for _, d := range defs {
		assert.Equal(t, "file-1", d.SourceFileID)
	}
}

func TestWorker_SceneKeywords(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	scene := &store.Scene{Name: "Billing", Keywords: "msisdn"}
	require.NoError(t, st.CreateScene(ctx, scene))

	client := &fakeClient{answer: func(string) (string, error) {
		return `{"title":"Top Up","method":"POST","apiPath":"/topup",` +
			`"requestExample":{"body":{"msisdn":"1"}},"responseExample":{"body":{"ok":true}}}`, nil
	}}
	w := newTestWorker(st, client)
	doc := "# Create Top Up\n\nThe MSISDN must be active.\n"

	plain := NewJob("file-1", "plain.md", []byte(doc))
	w.Process(ctx, plain)
	assert.Empty(t, client.prompts, "without the scene keyword nothing is relevant")

	job := NewJob("file-2", "topup.md", []byte(doc))
	job.SceneID = scene.ID
	job.SceneName = scene.Name
	w.Process(ctx, job)
	require.Len(t, client.prompts, 1)

	defs, err := st.ListDefinitionsByScene(ctx, scene.ID)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Billing", defs[0].SceneName)
}

func TestWorker_FullAIMode(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	client := &fakeClient{answer: func(string) (string, error) {
		return `{"items":[` +
			`{"title":"Create Order","method":"POST","apiPath":"https://api.example.com/v1/orders",` +
			`"requestExample":{"body":{"a":1}},"responseExample":{"body":{"b":2}}},` +
			`{"title":"Create Order","method":"POST","apiPath":"/v1/orders",` +
			`"requestExample":{"body":{"a":1}},"responseExample":{"body":{"b":2}}}]}`, nil
	}}
	w := newTestWorker(st, client)

	job := NewJob("file-1", "orders.md", []byte(ordersDoc))
	job.FullAI = true
	w.Process(ctx, job)

	assert.Equal(t, store.StatusCompleted, job.Status)
	assert.Len(t, client.prompts, 1)
	defs, err := st.ListDefinitions(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 1, "duplicate (method, path) is kept once")
	assert.Equal(t, "/v1/orders", defs[0].APIPath)
	assert.Equal(t, "/parse/mock/"+defs[0].ID, defs[0].MockURL)
}

func TestWorker_AllExtractionsFail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	client := &fakeClient{answer: func(string) (string, error) { return "", errors.New("model refused") }}
	w := newTestWorker(st, client)

	job := NewJob("file-1", "orders.md", []byte(ordersDoc))
	w.Process(ctx, job)

	assert.Equal(t, store.StatusFailed, job.Status)
	rec, err := st.GetUploadedFile(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, rec.Status)
	assert.Contains(t, rec.ErrorMessage, "no endpoints generated")
	assert.Len(t, job.Snapshot().Progress.Errors, 3)
}

func TestWorker_UnsupportedFile(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	w := newTestWorker(st, ordersClient())

	job := NewJob("file-1", "orders.exe", []byte("MZ"))
	w.Process(ctx, job)

	assert.Equal(t, store.StatusFailed, job.Status)
	rec, err := st.GetUploadedFile(ctx, "file-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rec.ErrorMessage, "parse:"), rec.ErrorMessage)
}

func TestOrchestrator_ProcessesQueue(t *testing.T) {
	st := newTestStore(t)
	log := slog.New(slog.DiscardHandler)
	cfg := config.Config{ProcessingConcurrentLimit: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestWorker(st, ordersClient()), st, log)

	ctx := context.Background()
	o.Start(ctx)
	defer o.Stop()

	for _, id := range []string{"file-1", "file-2", "file-3"} {
		require.NoError(t, o.Submit(ctx, NewJob(id, id+".md", []byte(ordersDoc))))
	}

	require.Eventually(t, func() bool {
		files, err := st.ListUploadedFiles(ctx)
		if err != nil || len(files) != 3 {
			return false
		}
		for _, f := range files {
			if f.Status != store.StatusCompleted {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, 0, o.QueueDepth())
	assert.Equal(t, store.StatusCompleted, o.GetJob("file-2").Snapshot().Status)
}

func TestOrchestrator_StopFailsWaitingJobs(t *testing.T) {
	st := newTestStore(t)
	log := slog.New(slog.DiscardHandler)
	started := make(chan struct{})
	var once sync.Once
	client := &blockingClient{started: func() { once.Do(func() { close(started) }) }}
	cfg := config.Config{ProcessingConcurrentLimit: 1, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, newTestWorker(st, client), st, log)

	ctx := context.Background()
	o.Start(ctx)
	for _, id := range []string{"file-1", "file-2", "file-3"} {
		require.NoError(t, o.Submit(ctx, NewJob(id, id+".md", []byte(ordersDoc))))
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first document never reached the model")
	}
	o.Stop()

	for _, id := range []string{"file-2", "file-3"} {
		rec, err := st.GetUploadedFile(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, store.StatusFailed, rec.Status, id)
		assert.Contains(t, rec.ErrorMessage, "shutdown", id)
	}
	assert.Equal(t, store.StatusFailed, o.GetJob("file-1").Snapshot().Status)
	assert.Equal(t, 0, o.QueueDepth())
}

// blockingClient holds every call until its context ends.
type blockingClient struct {
	started func()
}

func (b *blockingClient) Complete(ctx context.Context, _ string) (string, error) {
	b.started()
	<-ctx.Done()
	return "", ctx.Err()
}

func (b *blockingClient) Model() string { return "blocking" }

func TestRetrying(t *testing.T) {
	calls := 0
	flaky := &fakeClient{answer: func(string) (string, error) {
		calls++
		if calls < 3 {
			return "", &extract.RetryableError{StatusCode: 529, Message: "overloaded"}
		}
		return "ok", nil
	}}
	r := Retrying{Client: flaky, backoff: func(int) time.Duration { return 0 }}
	got, err := r.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)

	calls = 0
	hard := &fakeClient{answer: func(string) (string, error) {
		calls++
		return "", errors.New("bad request")
	}}
	r = Retrying{Client: hard, backoff: func(int) time.Duration { return 0 }}
	_, err = r.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, IsRetryable(err))
}
