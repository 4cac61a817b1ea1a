package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"sopdesk/database"
	"sopdesk/logger"
	"sopdesk/metrics"
	"sopdesk/repository"
	"sopdesk/services"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	db, err := database.Open("sqlite", database.MemoryDSN, "silent", log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	repos := repository.NewSet(db, log)
	svc := Services{
		SOPs:          services.NewSOPService(repos, log, nil),
		Steps:         services.NewStepService(repos, log, nil),
		Versions:      services.NewVersionService(repos, log, nil),
		LearningPaths: services.NewLearningPathService(repos, log, nil),
		Progress:      services.NewProgressService(repos, log, nil),
		Categories:    services.NewCategoryService(repos, log),
		Tags:          services.NewTagService(repos, log),
		Users:         services.NewUserService(repos, services.NewBcryptHasher(bcrypt.MinCost), log, nil),
	}

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)

	r := gin.New()
	NewHealthHandler(db, reg, log).RegisterRoutes(r)
	NewAPIHandler(svc, log).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// decode unwraps the success envelope into dst and returns its message.
func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) string {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if dst != nil {
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
	return env.Message
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

type idOnly struct {
	ID uint `json:"id"`
}

func createCategory(t *testing.T, r http.Handler) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/categories", gin.H{"name": "Operations"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var c idOnly
	decode(t, w, &c)
	return c.ID
}

func createSOP(t *testing.T, r http.Handler, categoryID uint, title string) uint {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/sops", gin.H{
		"title":       title,
		"description": title + " procedure",
		"categoryId":  categoryID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var s idOnly
	decode(t, w, &s)
	return s.ID
}

func TestSOPVersionLifecycle(t *testing.T) {
	r := newTestRouter(t)
	categoryID := createCategory(t, r)
	sopID := createSOP(t, r, categoryID, "Open store")

	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/sops/%d", sopID), gin.H{"title": "Open store v2", "difficulty": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		Title         string `json:"title"`
		VersionNumber int    `json:"versionNumber"`
		Difficulty    *int   `json:"difficulty"`
	}
	decode(t, w, &updated)
	assert.Equal(t, "Open store v2", updated.Title)
	assert.Equal(t, 2, updated.VersionNumber)
	require.NotNil(t, updated.Difficulty)
	assert.Equal(t, 3, *updated.Difficulty)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/sops/%d/versions", sopID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var versions []struct {
		ID            uint `json:"id"`
		VersionNumber int  `json:"versionNumber"`
	}
	decode(t, w, &versions)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].VersionNumber)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sops/%d/versions/%d/restore", sopID, versions[0].ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var restored struct {
		RestoredVersion  int `json:"restoredVersion"`
		NewVersionNumber int `json:"newVersionNumber"`
	}
	msg := decode(t, w, &restored)
	assert.Equal(t, "SOP restored to version 1", msg)
	assert.Equal(t, 1, restored.RestoredVersion)
	assert.Equal(t, 3, restored.NewVersionNumber)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/sops/%d", sopID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Title         string `json:"title"`
		Difficulty    *int   `json:"difficulty"`
		VersionsCount int64  `json:"versionsCount"`
	}
	decode(t, w, &detail)
	assert.Equal(t, "Open store", detail.Title)
	assert.Nil(t, detail.Difficulty)
	assert.Equal(t, int64(2), detail.VersionsCount)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/sops/%d/versions", sopID), nil)
	decode(t, w, &versions)
	require.Len(t, versions, 2)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/sops/%d/versions/compare/%d/%d", sopID, versions[1].ID, versions[0].ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cmp struct {
		Differences map[string]map[string]interface{} `json:"differences"`
	}
	decode(t, w, &cmp)
	assert.Contains(t, cmp.Differences, "title")
	assert.Contains(t, cmp.Differences, "difficulty")
	assert.NotContains(t, cmp.Differences, "description")
}

func TestSOPErrors(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/sops", gin.H{"title": "No description"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "description is required; categoryId is required", errorOf(t, w))

	w = doJSON(t, r, http.MethodGet, "/api/sops/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SOP not found", errorOf(t, w))

	w = doJSON(t, r, http.MethodGet, "/api/sops/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/sops?category=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublishDoesNotBumpVersion(t *testing.T) {
	r := newTestRouter(t)
	sopID := createSOP(t, r, createCategory(t, r), "Close store")

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sops/%d/publish", sopID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sop struct {
		Status        string `json:"status"`
		VersionNumber int    `json:"versionNumber"`
	}
	decode(t, w, &sop)
	assert.Equal(t, "published", sop.Status)
	assert.Equal(t, 1, sop.VersionNumber)

	w = doJSON(t, r, http.MethodGet, "/api/sops?status=published", nil)
	var list []idOnly
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, sopID, list[0].ID)
}

func TestStepReorderEndpoint(t *testing.T) {
	r := newTestRouter(t)
	sopID := createSOP(t, r, createCategory(t, r), "Count cash")

	var ids []uint
	for _, content := range []string{"A", "B", "C"} {
		w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sops/%d/steps", sopID), gin.H{"content": content})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var step idOnly
		decode(t, w, &step)
		ids = append(ids, step.ID)
	}

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sops/%d/steps/reorder", sopID), gin.H{"order": []uint{ids[2], ids[0], ids[1]}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var steps []struct {
		Content    string `json:"content"`
		StepNumber int    `json:"stepNumber"`
	}
	decode(t, w, &steps)
	require.Len(t, steps, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{steps[0].Content, steps[1].Content, steps[2].Content})
	assert.Equal(t, []int{1, 2, 3}, []int{steps[0].StepNumber, steps[1].StepNumber, steps[2].StepNumber})

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sops/%d/steps/reorder", sopID), gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "order array is required", errorOf(t, w))

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/sops/%d/steps/%d", sopID, ids[2]), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/sops/%d/steps", sopID), nil)
	decode(t, w, &steps)
	assert.Equal(t, []int{1, 2}, []int{steps[0].StepNumber, steps[1].StepNumber})
}

func TestLearningPathEndpoints(t *testing.T) {
	r := newTestRouter(t)
	categoryID := createCategory(t, r)
	first := createSOP(t, r, categoryID, "First")
	second := createSOP(t, r, categoryID, "Second")

	w := doJSON(t, r, http.MethodPost, "/api/learning-paths", gin.H{"title": "Onboarding", "sopIds": []uint{first}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var path idOnly
	decode(t, w, &path)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/learning-paths/%d/items", path.ID), gin.H{"sopId": second})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var added struct {
		ID       uint `json:"id"`
		Position int  `json:"position"`
	}
	decode(t, w, &added)
	assert.Equal(t, 2, added.Position)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/learning-paths/%d/items", path.ID), gin.H{"sopId": second})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SOP is already in this learning path", errorOf(t, w))

	type pathDetail struct {
		Items []struct {
			ID       uint `json:"id"`
			Position int  `json:"position"`
			SOP      struct {
				ID uint `json:"id"`
			} `json:"sop"`
		} `json:"items"`
	}
	var detail pathDetail
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/learning-paths/%d", path.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &detail)
	require.Len(t, detail.Items, 2)
	firstItem := detail.Items[0].ID

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/learning-paths/%d/reorder", path.ID), gin.H{"order": []uint{added.ID, firstItem}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	detail = pathDetail{}
	decode(t, w, &detail)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, second, detail.Items[0].SOP.ID)
	assert.Equal(t, first, detail.Items[1].SOP.ID)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/sops/%d", second), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/learning-paths/%d", path.ID), nil)
	detail = pathDetail{}
	decode(t, w, &detail)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, first, detail.Items[0].SOP.ID)
	assert.Equal(t, 1, detail.Items[0].Position)
}

func TestProgressEndpoints(t *testing.T) {
	r := newTestRouter(t)
	sopID := createSOP(t, r, createCategory(t, r), "Restock")

	w := doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "Ana", "email": "ana@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var user idOnly
	decode(t, w, &user)

	body := gin.H{"userId": user.ID, "sopId": sopID, "status": "in_progress"}
	w = doJSON(t, r, http.MethodPost, "/api/progress", body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doJSON(t, r, http.MethodPost, "/api/progress", body)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/progress/complete", gin.H{"userId": user.ID, "sopId": sopID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var progress struct {
		Status      string  `json:"status"`
		CompletedAt *string `json:"completedAt"`
	}
	decode(t, w, &progress)
	assert.Equal(t, "completed", progress.Status)
	assert.NotNil(t, progress.CompletedAt)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/progress/user/%d", user.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		CompletionRate float64 `json:"completionRate"`
		Stats          struct {
			Total     int `json:"total"`
			Completed int `json:"completed"`
		} `json:"stats"`
	}
	decode(t, w, &report)
	assert.Equal(t, 1, report.Stats.Total)
	assert.Equal(t, 1, report.Stats.Completed)
	assert.Equal(t, 100.0, report.CompletionRate)

	w = doJSON(t, r, http.MethodGet, "/api/progress/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dash struct {
		TotalUsers            int     `json:"totalUsers"`
		OverallCompletionRate float64 `json:"overallCompletionRate"`
	}
	decode(t, w, &dash)
	assert.Equal(t, 1, dash.TotalUsers)
	assert.Equal(t, 100.0, dash.OverallCompletionRate)

	w = doJSON(t, r, http.MethodPost, "/api/progress", gin.H{"userId": user.ID, "sopId": sopID, "status": "paused"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserDeleteChecksActor(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/register", gin.H{"name": "Bo", "email": "Bo@Example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var user struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
	}
	decode(t, w, &user)
	assert.Equal(t, "bo@example.com", user.Email)
	assert.NotContains(t, w.Body.String(), "password")

	w = doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "Bo", "email": "bo@example.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, w.Code)

	path := fmt.Sprintf("/api/users/%d", user.ID)
	w = doJSON(t, r, http.MethodDelete, path, nil, actorHeader, fmt.Sprint(user.ID))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "you cannot delete your own account", errorOf(t, w))

	w = doJSON(t, r, http.MethodDelete, path, nil, actorHeader, "nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCategoryDeleteConflict(t *testing.T) {
	r := newTestRouter(t)
	categoryID := createCategory(t, r)
	createSOP(t, r, categoryID, "Anything")

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/categories/%d", categoryID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "cannot delete category with existing SOPs", errorOf(t, w))
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMalformedBody(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/tags", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request format.", errorOf(t, w))
}

func TestRequestBinding(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "Cy", "email": "not-an-email", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email must be a valid email address", errorOf(t, w))

	w = doJSON(t, r, http.MethodPost, "/api/progress/start", gin.H{"userId": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "sopId is required", errorOf(t, w))

	sopID := createSOP(t, r, createCategory(t, r), "Lock up")
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/sops/%d/steps", sopID), gin.H{"attachment": "a.pdf"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "content is required", errorOf(t, w))

	w = doJSON(t, r, http.MethodPost, "/api/users", gin.H{"name": "Cy", "email": "cy@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var user idOnly
	decode(t, w, &user)

	w = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/users/%d", user.ID), gin.H{"email": "still not valid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email must be a valid email address", errorOf(t, w))
}
