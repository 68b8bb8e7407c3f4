package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/justsurfingit/job-tracker/internal/auth"
	"github.com/justsurfingit/job-tracker/internal/database"
	"github.com/justsurfingit/job-tracker/internal/extract"
	"github.com/justsurfingit/job-tracker/internal/middleware"
	"github.com/justsurfingit/job-tracker/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubFetcher struct {
	html []byte
	err  error
}

func (f stubFetcher) FetchHTML(ctx context.Context, rawURL string) ([]byte, error) {
	return f.html, f.err
}

type stubFallback struct {
	details *extract.JobDetails
}

func (f stubFallback) ExtractJobDetails(ctx context.Context, rawHTML, pageURL string) (*extract.JobDetails, error) {
	return f.details, nil
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	jobs   *JobHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := database.Connect("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	jobService := services.NewJobService(db)
	jobs := NewJobHandler(jobService, nil, nil)

	router := NewRouter(RouterConfig{
		Limiter:        middleware.NewMemoryLimiter(),
		AuthRateLimit:  100,
		AuthRateWindow: time.Minute,
	}, Dependencies{
		Tokens:           tokens,
		AuthHandler:      NewAuthHandler(services.NewAuthService(db, tokens)),
		JobHandler:       jobs,
		InterviewHandler: NewInterviewHandler(services.NewInterviewService(db)),
	})
	return &testServer{router: router, db: db, jobs: jobs}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": email, "password": "hunter22", "name": "Test User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) createJob(t *testing.T, token string, body gin.H) map[string]any {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/jobs", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Ada@Example.com")

	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "ada@example.com", "password": "hunter22", "name": "Again",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email already registered", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "hunter22"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode(t, w)
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)
	user := login["user"].(map[string]any)
	assert.NotContains(t, user, "passwordHash")

	w = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ada@example.com", decode(t, w)["email"])
}

func TestJobs_RequireToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token provided", decode(t, w)["error"])

	w = s.do(t, http.MethodGet, "/api/jobs", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decode(t, w)["error"])
}

func TestCreateJob_Defaults(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")

	created := s.createJob(t, token, gin.H{
		"title": "Backend Engineer", "company": "Acme", "url": "https://acme.example/jobs/1",
	})
	assert.Equal(t, "saved", created["status"])
	assert.Nil(t, created["location"])
	assert.Nil(t, created["salary"])
	assert.Nil(t, created["dateApplied"])
	assert.NotEmpty(t, created["dateAdded"])

	w := s.do(t, http.MethodGet, "/api/jobs/"+created["id"].(string), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "Backend Engineer", got["title"])
	assert.Equal(t, "Acme", got["company"])
}

func TestCreateJob_RoundTripsOptionalFields(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")

	created := s.createJob(t, token, gin.H{
		"title":    "Staff Engineer",
		"company":  "Globex",
		"url":      "https://globex.example/careers/9",
		"location": "Berlin (hybrid)",
		"salary":   "€90k - €110k",
		"notes":    "via meetup",
		"status":   "interviewing",
	})

	w := s.do(t, http.MethodGet, "/api/jobs/"+created["id"].(string), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, "Staff Engineer", got["title"])
	assert.Equal(t, "Globex", got["company"])
	assert.Equal(t, "https://globex.example/careers/9", got["url"])
	assert.Equal(t, "Berlin (hybrid)", got["location"])
	assert.Equal(t, "€90k - €110k", got["salary"])
	assert.Equal(t, "via meetup", got["notes"])
	assert.Equal(t, "interviewing", got["status"])
	assert.Nil(t, got["dateApplied"], "create never stamps dateApplied")
}

func TestCreateJob_ValidationDetails(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")

	w := s.do(t, http.MethodPost, "/api/jobs", token, gin.H{
		"title": "Engineer", "url": "not a url", "status": "ghosted",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error   string       `json:"error"`
		Details []FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid input", body.Error)

	fields := map[string]bool{}
	for _, d := range body.Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["company"])
	assert.True(t, fields["url"])
	assert.True(t, fields["status"])
}

func TestJobs_OtherUsersAreInvisible(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com")
	intruder := s.register(t, "intruder@example.com")

	job := s.createJob(t, owner, gin.H{"title": "SRE", "company": "Acme", "url": "https://acme.example/jobs/2"})
	path := "/api/jobs/" + job["id"].(string)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, intruder, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPut, path, intruder, gin.H{"title": "Mine"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, intruder, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path+"/interviews", intruder, nil).Code)

	w := s.do(t, http.MethodGet, "/api/jobs", intruder, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = s.do(t, http.MethodGet, path+"/events", intruder, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SRE", decode(t, w)["title"])
}

func TestInterviews_OtherUsersCannotMutate(t *testing.T) {
	s := newTestServer(t)
	owner := s.register(t, "owner@example.com")
	intruder := s.register(t, "intruder@example.com")

	job := s.createJob(t, owner, gin.H{"title": "SRE", "company": "Acme", "url": "https://acme.example/jobs/6"})
	path := "/api/jobs/" + job["id"].(string) + "/interviews"
	w := s.do(t, http.MethodPost, path, owner, gin.H{"date": "2026-03-01T15:00:00Z", "type": "video", "notes": "panel"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	interviewPath := path + "/" + decode(t, w)["id"].(string)

	w = s.do(t, http.MethodPost, path, intruder, gin.H{"date": "2026-03-02T15:00:00Z", "type": "phone"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Job not found", decode(t, w)["error"])

	w = s.do(t, http.MethodPut, interviewPath, intruder, gin.H{"notes": "hijacked"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Job not found", decode(t, w)["error"])

	w = s.do(t, http.MethodDelete, interviewPath, intruder, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var interviews []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &interviews))
	require.Len(t, interviews, 1)
	assert.Equal(t, "panel", interviews[0]["notes"])
}

func TestUpdateJob_StatusChange(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")
	job := s.createJob(t, token, gin.H{"title": "SRE", "company": "Acme", "url": "https://acme.example/jobs/3"})
	path := "/api/jobs/" + job["id"].(string)

	w := s.do(t, http.MethodPut, path, token, gin.H{"status": "applied", "notes": "referral"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)
	assert.Equal(t, "applied", updated["status"])
	assert.Equal(t, "referral", updated["notes"])
	assert.NotNil(t, updated["dateApplied"])
	assert.Equal(t, "SRE", updated["title"], "untouched fields keep their value")

	w = s.do(t, http.MethodPut, path, token, gin.H{"title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, path+"/events", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var events []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, "CREATED", events[0]["eventType"])
	assert.Equal(t, "STATUS_CHANGE", events[1]["eventType"])
}

func TestDeleteJob_RemovesInterviews(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")
	job := s.createJob(t, token, gin.H{"title": "SRE", "company": "Acme", "url": "https://acme.example/jobs/4"})
	jobID := job["id"].(string)
	path := "/api/jobs/" + jobID

	w := s.do(t, http.MethodPost, path+"/interviews", token, gin.H{
		"date": "2026-03-01T15:00:00Z", "type": "phone",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	interviewID := decode(t, w)["id"].(string)

	w = s.do(t, http.MethodPut, path+"/interviews/"+interviewID, token, gin.H{"notes": "went well"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "went well", decode(t, w)["notes"])

	w = s.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["interviews"], 1)

	w = s.do(t, http.MethodDelete, path, token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path+"/interviews", token, nil).Code)

	var remaining int64
	require.NoError(t, s.db.Table("interviews").Where("job_application_id = ?", jobID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestInterviews_UnknownInterview(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")
	job := s.createJob(t, token, gin.H{"title": "SRE", "company": "Acme", "url": "https://acme.example/jobs/5"})

	w := s.do(t, http.MethodDelete, "/api/jobs/"+job["id"].(string)+"/interviews/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Interview not found", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/api/jobs/"+job["id"].(string)+"/interviews", token, gin.H{"type": "dinner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListJobs_FilterAndPaging(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")
	for i, status := range []string{"saved", "applied", "applied", "rejected"} {
		s.createJob(t, token, gin.H{
			"title": "Role", "company": "Co", "url": "https://co.example/jobs/" + string(rune('a'+i)), "status": status,
		})
	}

	var list []map[string]any
	w := s.do(t, http.MethodGet, "/api/jobs?status=applied", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = s.do(t, http.MethodGet, "/api/jobs?limit=3&offset=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = s.do(t, http.MethodGet, "/api/jobs?status=ghosted", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")
	for _, status := range []string{"saved", "applied", "interviewing", "offer"} {
		s.createJob(t, token, gin.H{"title": "Role", "company": "Co", "url": "https://co.example/jobs/x", "status": status})
	}

	w := s.do(t, http.MethodGet, "/api/jobs/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := decode(t, w)
	assert.EqualValues(t, 4, stats["total"])
	assert.EqualValues(t, 0.5, stats["responseRate"])
	byStatus := stats["byStatus"].(map[string]any)
	assert.Len(t, byStatus, 6)
	assert.EqualValues(t, 0, byStatus["rejected"])
	assert.EqualValues(t, 1, byStatus["offer"])
}

func TestParseJob(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")
	page := `<html><body>
		<h1 class="job-details-jobs-unified-top-card__job-title">Platform Engineer</h1>
		<div class="job-details-jobs-unified-top-card__company-name">Initech</div>
	</body></html>`

	t.Run("inline html", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/jobs/extract", token, gin.H{
			"url": "https://www.linkedin.com/jobs/view/42/", "html": page,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode(t, w)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "Platform Engineer", data["title"])
		assert.Equal(t, "Initech", data["company"])
	})

	t.Run("fetched page", func(t *testing.T) {
		s.jobs.Fetcher = stubFetcher{html: []byte(page)}
		w := s.do(t, http.MethodPost, "/api/jobs/extract", token, gin.H{"url": "https://www.linkedin.com/jobs/view/42/"})
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("fetch failure", func(t *testing.T) {
		s.jobs.Fetcher = stubFetcher{err: errors.New("connection refused")}
		w := s.do(t, http.MethodPost, "/api/jobs/extract", token, gin.H{"url": "https://www.linkedin.com/jobs/view/42/"})
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("unknown board", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/jobs/extract", token, gin.H{
			"url": "https://careers.example.com/openings/7", "html": "<h1>Chef</h1>",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, false, decode(t, w)["success"])
	})

	t.Run("unknown board with fallback", func(t *testing.T) {
		s.jobs.Fallback = stubFallback{details: &extract.JobDetails{Title: "Chef", Company: "Bistro", URL: "https://careers.example.com/openings/7"}}
		w := s.do(t, http.MethodPost, "/api/jobs/extract", token, gin.H{
			"url": "https://careers.example.com/openings/7", "html": "<h1>Chef</h1>",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Chef", decode(t, w)["data"].(map[string]any)["title"])
	})
}

func TestParseJob_RefusesInternalTargets(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@example.com")
	s.jobs.Fetcher = extract.NewFetcher(extract.DefaultFetchConfig())

	var hits atomic.Int32
	internal := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<h1 class="app-title">instance-id: i-123</h1>`))
	}))
	defer internal.Close()

	for _, target := range []string{
		internal.URL + "/latest/meta-data",
		"http://169.254.169.254/latest/meta-data",
		"http://127.0.0.1:1/",
	} {
		w := s.do(t, http.MethodPost, "/api/jobs/extract", token, gin.H{"url": target})
		assert.Equal(t, http.StatusBadGateway, w.Code, target)
		assert.Equal(t, "Could not fetch page", decode(t, w)["error"], target)
	}
	assert.Zero(t, hits.Load())
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}
