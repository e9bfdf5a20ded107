// Package store persists endpoint definitions, cached responses, operation
// logs, uploaded file records and scenes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dgallion1/docmock/internal/endpoint"
)

var ErrNotFound = errors.New("not found")

// Operation log types.
const (
	LogUploadMock         = "UPLOAD_MOCK"
	LogMockCreate         = "MOCK_CREATE"
	LogMockHit            = "MOCK_HIT"
	LogMockGen            = "MOCK_GEN"
	LogMockError          = "MOCK_ERROR"
	LogMockValidationFail = "MOCK_VALIDATION_FAIL"
	LogMockUpdate         = "MOCK_UPDATE"
	LogMockDelete         = "MOCK_DELETE"
	LogDocDelete          = "DOC_DELETE"
)

// servingLogTypes are the log types counted as endpoint traffic.
var servingLogTypes = []string{LogMockHit, LogMockGen, LogMockError, LogMockValidationFail}

// UploadStatus is the processing state of an uploaded document.
type UploadStatus string

const (
	StatusPending    UploadStatus = "PENDING"
	StatusProcessing UploadStatus = "PROCESSING"
	StatusCompleted  UploadStatus = "COMPLETED"
	StatusFailed     UploadStatus = "FAILED"
)

// DefaultSceneName names the scene created on first start.
const DefaultSceneName = "Default"

type CacheEntry struct {
	ID           string    `json:"id"`
	MockID       string    `json:"mockId"`
	Signature    string    `json:"requestSignature"`
	RequestBody  string    `json:"requestBody"`
	ResponseBody string    `json:"responseBody"`
	CreatedAt    time.Time `json:"createdAt"`
}

type OpLog struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	MockID         string    `json:"mockId,omitempty"`
	SourceFileName string    `json:"sourceFileName,omitempty"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"createdAt"`
}

type UploadedFile struct {
	FileID         string       `json:"fileId"`
	FileName       string       `json:"fileName"`
	Status         UploadStatus `json:"status"`
	SceneID        string       `json:"sceneId,omitempty"`
	SceneName      string       `json:"sceneName,omitempty"`
	FullAI         bool         `json:"fullAi"`
	GeneratedCount int          `json:"generatedCount"`
	ErrorMessage   string       `json:"errorMessage,omitempty"`
	UploadedAt     time.Time    `json:"uploadedAt"`
	ProcessedAt    *time.Time   `json:"processedAt,omitempty"`
}

type Scene struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Keywords    string    `json:"keywords"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LogStats counts serving and upload logs in total and over the last 24 hours.
type LogStats struct {
	UploadMock            int `json:"uploadMock"`
	MockHit               int `json:"mockHit"`
	MockGen               int `json:"mockGen"`
	MockError             int `json:"mockError"`
	MockValidationFail    int `json:"mockValidationFail"`
	MockHit24h            int `json:"mockHit24h"`
	MockGen24h            int `json:"mockGen24h"`
	MockError24h          int `json:"mockError24h"`
	MockValidationFail24h int `json:"mockValidationFail24h"`
}

// EndpointCount is serving traffic for one definition.
type EndpointCount struct {
	MockID string `json:"mockId"`
	Title  string `json:"title"`
	Count  int    `json:"count"`
}

// SceneCount is serving traffic for one scene.
type SceneCount struct {
	SceneID   string `json:"sceneId"`
	SceneName string `json:"sceneName"`
	Count     int    `json:"count"`
}

// Store is the full persistence surface.
type Store interface {
	SaveDefinition(ctx context.Context, d *endpoint.Definition) error
	UpdateDefinition(ctx context.Context, d *endpoint.Definition) error
	GetDefinition(ctx context.Context, id string) (*endpoint.Definition, error)
	ListDefinitions(ctx context.Context) ([]*endpoint.Definition, error)
	ListDefinitionsByScene(ctx context.Context, sceneID string) ([]*endpoint.Definition, error)
	FindByPath(ctx context.Context, apiPath, method string, looseMethod bool) (*endpoint.Definition, error)
	DeleteDefinition(ctx context.Context, id string) error
	DeleteBySourceFile(ctx context.Context, fileID string) (int, error)
	DeleteBySourceFileName(ctx context.Context, fileName string) (int, error)
	ReplaceSourceFile(ctx context.Context, fileName string, defs []*endpoint.Definition) (int, error)

	GetCachedResponse(ctx context.Context, mockID, signature string) (*CacheEntry, error)
	PutCachedResponse(ctx context.Context, e *CacheEntry) error

	AddLog(ctx context.Context, l OpLog) error
	RecentLogs(ctx context.Context, limit int) ([]OpLog, error)
	LogStats(ctx context.Context) (LogStats, error)
	EndpointCounts(ctx context.Context, since time.Time) ([]EndpointCount, error)
	SceneCounts(ctx context.Context, since time.Time) ([]SceneCount, error)

	SaveUploadedFile(ctx context.Context, f *UploadedFile) error
	GetUploadedFile(ctx context.Context, fileID string) (*UploadedFile, error)
	ListUploadedFiles(ctx context.Context) ([]*UploadedFile, error)

	EnsureDefaultScene(ctx context.Context) (*Scene, error)
	CreateScene(ctx context.Context, s *Scene) error
	UpdateScene(ctx context.Context, s *Scene) error
	GetScene(ctx context.Context, id string) (*Scene, error)
	ListScenes(ctx context.Context) ([]*Scene, error)
	DeleteScene(ctx context.Context, id string) error

	Close() error
}

// StartOfDay is midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
