package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chepyr/task-api/internal/auth"
	"github.com/chepyr/task-api/internal/db"
	"github.com/chepyr/task-api/internal/models"
)

const testSecret = "test-secret-32-bytes-long-1234567890"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupHTTP(t *testing.T) (*Handler, *gin.Engine, *sql.DB) {
	t.Helper()

	dsn, err := db.SQLiteDSN(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	dbx, err := db.Connect(db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbx.Close() })
	if err := db.Migrate(context.Background(), dbx, db.DriverSQLite); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	h := &Handler{
		UserRepo: db.NewUserRepository(dbx),
		TaskRepo: db.NewTaskRepository(dbx),
		Tokens:   auth.NewTokenCodec([]byte(testSecret), time.Hour),
		WSHub:    NewWSHub(discardLogger()),
		DB:       dbx,
		Logger:   discardLogger(),
	}
	return h, h.Router(), dbx
}

func doRequest(t *testing.T, router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := newRequest(method, path, body)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(router, req)
}

// registerAndLogin creates a user through the API and returns its token and id.
func registerAndLogin(t *testing.T, router http.Handler, username string) (string, int64) {
	t.Helper()
	creds := `{"username":"` + username + `","password":"secret"}`

	rec := doRequest(t, router, http.MethodPost, "/api/auth/register", creds, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status=%d body=%s", username, rec.Code, rec.Body.String())
	}
	rec = doRequest(t, router, http.MethodPost, "/api/auth/login", creds, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status=%d body=%s", username, rec.Code, rec.Body.String())
	}
	var resp loginResponse
	decodeJSON(t, rec, &resp)
	return resp.Token, resp.UserID
}

func createTask(t *testing.T, router http.Handler, token, body string) models.Task {
	t.Helper()
	rec := doRequest(t, router, http.MethodPost, "/api/tasks", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/tasks status=%d body=%s", rec.Code, rec.Body.String())
	}
	var task models.Task
	decodeJSON(t, rec, &task)
	return task
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	decodeJSON(t, rec, &resp)
	return resp.Error
}

func newRequest(method, path, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	return httptest.NewRequest(method, path, reader)
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
