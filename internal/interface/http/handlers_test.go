package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temahub/topic-allocation-hub/internal/application/query"
	"github.com/temahub/topic-allocation-hub/internal/domain/shared"
	"github.com/temahub/topic-allocation-hub/internal/domain/topic"
	"github.com/temahub/topic-allocation-hub/internal/infrastructure/importer"
	"github.com/temahub/topic-allocation-hub/internal/interface/http/handlers"
)

type stubTopicRepo struct {
	topics []*topic.Topic
}

func (r *stubTopicRepo) Create(ctx context.Context, t *topic.Topic) error { return nil }

func (r *stubTopicRepo) GetByID(ctx context.Context, id string) (*topic.Topic, error) {
	for _, t := range r.topics {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, shared.ErrTopicNotFound
}

func (r *stubTopicRepo) List(ctx context.Context, f topic.Filter) ([]*topic.Topic, error) {
	var out []*topic.Topic
	for _, t := range r.topics {
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *stubTopicRepo) ListFreeByWorkType(ctx context.Context, workTypeID string) ([]*topic.Topic, error) {
	return nil, nil
}

func (r *stubTopicRepo) UpdateAllocation(ctx context.Context, t *topic.Topic) error { return nil }

func (r *stubTopicRepo) MarkReservedIfFree(ctx context.Context, topicID, groupID, userID string, at time.Time) (bool, error) {
	return false, nil
}

func newTestServer(t *testing.T, repo *stubTopicRepo) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0 // не мешаем тестам лимитером

	return NewServer(cfg, Dependencies{
		ListTopicsHandler: query.NewListTopicsHandler(repo, nil),
		HealthChecker:     handlers.NewNoopHealthChecker(),
	})
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, &stubTopicRepo{})

	rec := doRequest(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestListTopicsEndpoint(t *testing.T) {
	t1, _ := topic.NewTopic("t1", "Тема 1", "sup1", "wt1")
	t2, _ := topic.NewTopic("t2", "Тема 2", "sup1", "wt1")
	_ = t2.MarkReserved("g1", "u1", time.Now().UTC())

	s := newTestServer(t, &stubTopicRepo{topics: []*topic.Topic{t1, t2}})

	rec := doRequest(s, http.MethodGet, "/api/v1/topics", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Count  int               `json:"count"`
			Topics []query.TopicView `json:"topics"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Data.Count)
}

func TestListTopicsEndpoint_StatusFilter(t *testing.T) {
	t1, _ := topic.NewTopic("t1", "Тема 1", "sup1", "wt1")
	t2, _ := topic.NewTopic("t2", "Тема 2", "sup1", "wt1")
	_ = t2.MarkReserved("g1", "u1", time.Now().UTC())

	s := newTestServer(t, &stubTopicRepo{topics: []*topic.Topic{t1, t2}})

	rec := doRequest(s, http.MethodGet, "/api/v1/topics?status=reserved", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"t2"`)
	assert.NotContains(t, rec.Body.String(), `"id":"t1"`)
}

func TestListTopicsEndpoint_InvalidStatus(t *testing.T) {
	s := newTestServer(t, &stubTopicRepo{})

	rec := doRequest(s, http.MethodGet, "/api/v1/topics?status=pending", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_status")
}

func TestReserveEndpoint_RequiresBody(t *testing.T) {
	s := newTestServer(t, &stubTopicRepo{})

	rec := doRequest(s, http.MethodPost, "/api/v1/topics/t1/reserve", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/topics/t1/reserve", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/topics/t1/reserve", `{"group_id":"g1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDomainErrorMapping(t *testing.T) {
	s := newTestServer(t, &stubTopicRepo{})

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{shared.ErrTopicNotFound, http.StatusNotFound, "not_found"},
		{shared.ErrReservationNotFound, http.StatusNotFound, "not_found"},
		{shared.ErrReservationExists, http.StatusConflict, "conflict"},
		{shared.ErrStudentHasTopic, http.StatusConflict, "conflict"},
		{shared.ErrNotReservationOwner, http.StatusForbidden, "forbidden"},
		{shared.ErrReservationExpired, http.StatusBadRequest, "reservation_expired"},
		{shared.ErrTopicNotFree, http.StatusBadRequest, "invalid_state"},
		{shared.ErrTopicAssigned, http.StatusBadRequest, "invalid_state"},
		{shared.ErrNotEnoughTopics, http.StatusBadRequest, "not_enough_topics"},
		{shared.WrapError("postgres", "get topic", shared.ErrStorage, "storage operation failed", assert.AnError), http.StatusInternalServerError, "internal_server_error"},
		{assert.AnError, http.StatusInternalServerError, "internal_server_error"},
	}

	for _, c := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/topics/t1/reserve", nil)
		s.writeDomainError(rec, req, c.err)

		assert.Equal(t, c.status, rec.Code, "error: %v", c.err)

		var resp JSONResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, c.code, resp.Error.Code, "error: %v", c.err)
	}
}

type stubImporter struct {
	stats *importer.ImportStats
	err   error
}

func (i *stubImporter) ImportStudents(ctx context.Context, rows []importer.StudentRow) (*importer.ImportStats, error) {
	return i.stats, i.err
}

func (i *stubImporter) ImportTopics(ctx context.Context, rows []importer.TopicRow) (*importer.ImportStats, error) {
	return i.stats, i.err
}

func newImportTestServer(t *testing.T, imp BulkImporter) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0

	return NewServer(cfg, Dependencies{
		Importer:      imp,
		HealthChecker: handlers.NewNoopHealthChecker(),
	})
}

func TestImportStudentsEndpoint(t *testing.T) {
	s := newImportTestServer(t, &stubImporter{stats: &importer.ImportStats{Created: 2, Skipped: 1}})

	body := `{"rows":[{"full_name":"Иванов Иван","group_name":"П-21"},{"full_name":"Петров Пётр","group_name":"П-21"}]}`
	rec := doRequest(s, http.MethodPost, "/api/v1/import/students", body)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Created int `json:"created"`
			Skipped int `json:"skipped"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Data.Created)
	assert.Equal(t, 1, resp.Data.Skipped)
}

func TestImportTopicsEndpoint(t *testing.T) {
	s := newImportTestServer(t, &stubImporter{stats: &importer.ImportStats{Created: 1}})

	body := `{"rows":[{"title":"Тема","supervisor_name":"Сидоров С.С.","work_type_name":"Курсовая"}]}`
	rec := doRequest(s, http.MethodPost, "/api/v1/import/topics", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"created":1`)
}

func TestImportEndpoint_EmptyRows(t *testing.T) {
	s := newImportTestServer(t, &stubImporter{stats: &importer.ImportStats{}})

	rec := doRequest(s, http.MethodPost, "/api/v1/import/students", `{"rows":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestImportEndpoint_NotConfigured(t *testing.T) {
	// Без импортёра endpoint отвечает 503, а не паникует.
	s := newTestServer(t, &stubTopicRepo{})

	rec := doRequest(s, http.MethodPost, "/api/v1/import/topics", `{"rows":[{"title":"Тема"}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "import_unavailable")
}

func TestUnknownEndpoint(t *testing.T) {
	s := newTestServer(t, &stubTopicRepo{})

	rec := doRequest(s, http.MethodGet, "/api/v1/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
