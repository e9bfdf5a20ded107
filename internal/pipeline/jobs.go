package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/docmock/internal/store"
)

// Job tracks the ingestion of one uploaded document.
type Job struct {
	mu sync.Mutex

	FileID    string `json:"fileId"`
	FileName  string `json:"fileName"`
	SceneID   string `json:"sceneId"`
	SceneName string `json:"sceneName"`
	FullAI    bool   `json:"fullAi"`

	Status store.UploadStatus `json:"status"`
	Phase  string             `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"contentHash,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	fileData []byte
	errors   []string
}

// Progress counts chunks (or windows) worked and endpoints found.
type Progress struct {
	TotalChunks     int      `json:"totalChunks"`
	ChunksProcessed int      `json:"chunksProcessed"`
	Candidates      int      `json:"candidates"`
	Saved           int      `json:"saved"`
	Errors          []string `json:"errors"`
}

// NewJob returns a pending job for an upload.
func NewJob(fileID, fileName string, data []byte) *Job {
	now := time.Now().UTC()
	return &Job{
		FileID:    fileID,
		FileName:  fileName,
		Status:    store.StatusPending,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
}

// JobStore keeps in-flight and recently finished jobs by file id.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.FileID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes finished jobs idle for longer than the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) done() bool {
	return j.Status == store.StatusCompleted || j.Status == store.StatusFailed
}

// SetStatus moves the job to status and phase together.
func (j *Job) SetStatus(status store.UploadStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// SetPhase moves a running job to another phase.
func (j *Job) SetPhase(phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError appends a per-chunk or fatal error message.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

func (j *Job) IncrChunksProcessed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksProcessed++
	j.UpdatedAt = time.Now()
}

// AddCandidates records extracted and saved endpoint counts.
func (j *Job) AddCandidates(found, saved int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Candidates += found
	j.Progress.Saved += saved
	j.UpdatedAt = time.Now()
}

// SetTotalChunks records how many chunks or windows will be sent to the LLM.
func (j *Job) SetTotalChunks(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalChunks = n
	j.UpdatedAt = time.Now()
}

// FileData returns the uploaded bytes, nil once processing has ended.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseData drops the file bytes once processing ends.
func (j *Job) releaseData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is the progress view served while a job is in flight.
type JobSnapshot struct {
	FileID      string             `json:"fileId"`
	FileName    string             `json:"fileName"`
	SceneID     string             `json:"sceneId,omitempty"`
	FullAI      bool               `json:"fullAi"`
	Status      store.UploadStatus `json:"status"`
	Phase       string             `json:"phase"`
	ContentHash string             `json:"contentHash,omitempty"`
	Progress    Progress           `json:"progress"`
}

func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		FileID:      j.FileID,
		FileName:    j.FileName,
		SceneID:     j.SceneID,
		FullAI:      j.FullAI,
		Status:      j.Status,
		Phase:       j.Phase,
		ContentHash: j.ContentHash,
		Progress: Progress{
			TotalChunks:     j.Progress.TotalChunks,
			ChunksProcessed: j.Progress.ChunksProcessed,
			Candidates:      j.Progress.Candidates,
			Saved:           j.Progress.Saved,
			Errors:          append([]string{}, errs...),
		},
	}
}

// Record is the persisted upload record for the job's current state.
func (j *Job) Record() *store.UploadedFile {
	j.mu.Lock()
	defer j.mu.Unlock()
	f := &store.UploadedFile{
		FileID:         j.FileID,
		FileName:       j.FileName,
		Status:         j.Status,
		SceneID:        j.SceneID,
		SceneName:      j.SceneName,
		FullAI:         j.FullAI,
		GeneratedCount: j.Progress.Saved,
		UploadedAt:     j.CreatedAt,
	}
	if j.done() {
		at := j.UpdatedAt.UTC()
		f.ProcessedAt = &at
		if j.Status == store.StatusFailed && len(j.errors) > 0 {
			f.ErrorMessage = j.errors[len(j.errors)-1]
		}
	}
	return f
}

// ContentHashHex is the hex SHA-256 of an upload.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
