package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"dbplayground/internal/adapter/db/gormstore/storetest"
	"dbplayground/internal/adapter/gin/handler"
	"dbplayground/internal/usecase/user"
	"dbplayground/pkg/logger"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	log := zaptest.NewLogger(t)
	svc := user.New(storetest.NewRepo(t), log)
	return SetupRouter(handler.NewUserHandler(svc, log), nil, "dbplayground", log)
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"dbplayground"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))
}

func TestUserRoutes(t *testing.T) {
	r := setupRouter(t)

	for _, body := range []string{
		`{"first_name":"Rome","last_name":"Bell","age":33}`,
		`{"first_name":"Brian","last_name":"Krabec","age":27}`,
		`{"first_name":"Nick","last_name":"Schmitt","age":28}`,
	} {
		require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/v1/users", body).Code)
	}

	t.Run("lookup", func(t *testing.T) {
		w := do(r, http.MethodGet, "/v1/users/lookup?first_name=Nick", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp handler.UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(3), resp.ID)
		assert.Equal(t, "Schmitt", resp.LastName)
	})

	t.Run("lookup without conditions", func(t *testing.T) {
		w := do(r, http.MethodGet, "/v1/users/lookup", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("lookup no match", func(t *testing.T) {
		w := do(r, http.MethodGet, "/v1/users/lookup?first_name=Nobody", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("get by id", func(t *testing.T) {
		w := do(r, http.MethodGet, "/v1/users/2", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp handler.UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Brian", resp.FirstName)
	})

	t.Run("list", func(t *testing.T) {
		w := do(r, http.MethodGet, "/v1/users", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp handler.ListUsersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Users, 3)
		assert.Equal(t, []string{"Rome", "Brian", "Nick"}, []string{
			resp.Users[0].FirstName, resp.Users[1].FirstName, resp.Users[2].FirstName,
		})
	})
}

func TestRequestIDPropagated(t *testing.T) {
	r := setupRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(logger.RequestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(logger.RequestIDHeader))
}
