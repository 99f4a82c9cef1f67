package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/server"
)

func newRepo(t *testing.T) *server.Repository {
	t.Helper()
	repo, err := server.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newServer(t *testing.T) (*httptest.Server, *api.Client) {
	t.Helper()
	h := server.New(newRepo(t), server.Options{CORSOrigin: "http://localhost:5173"}).Handler()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := api.New(ts.URL)
	require.NoError(t, err)
	return ts, c
}

func TestRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	a, err := repo.Create(ctx, model.NewTodo{Title: "buy milk"})
	require.NoError(t, err)
	assert.Equal(t, model.ID("1"), a.ID)
	assert.False(t, a.Completed)

	_, err = repo.Create(ctx, model.NewTodo{Title: "walk dog", Description: "twice"})
	require.NoError(t, err)

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "twice", all[1].Description)

	upd, err := repo.Update(ctx, 1, model.CompletedPatch(true))
	require.NoError(t, err)
	assert.True(t, upd.Completed)
	assert.Equal(t, "buy milk", upd.Title, "untouched fields survive")

	require.NoError(t, repo.Delete(ctx, 1))
	_, err = repo.Find(ctx, 1)
	assert.ErrorIs(t, err, server.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 1), server.ErrNotFound)

	_, err = repo.Update(ctx, 99, model.CompletedPatch(true))
	assert.ErrorIs(t, err, server.ErrNotFound)
}

func TestRepository_EmptyListIsNotNil(t *testing.T) {
	all, err := newRepo(t).All(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestRoundTrip_ThroughClient(t *testing.T) {
	ctx := context.Background()
	_, c := newServer(t)

	todos, err := c.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)

	require.NoError(t, c.Create(ctx, model.NewTodo{Title: "  write report ", Description: "**soon**"}))
	todos, err = c.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "write report", todos[0].Title)
	id := todos[0].ID

	require.NoError(t, c.UpdatePartial(ctx, id, model.CompletedPatch(true)))
	got, err := c.Find(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, "**soon**", got.Description)

	require.NoError(t, c.UpdatePartial(ctx, id, model.ContentPatch("final report", "")))
	got, err = c.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "final report", got.Title)
	assert.True(t, got.Completed, "content edit leaves completion alone")

	require.NoError(t, c.Delete(ctx, id))
	_, err = c.Find(ctx, id)
	assert.True(t, errors.Is(err, api.ErrNotFound))
	assert.True(t, errors.Is(c.Delete(ctx, id), api.ErrNotFound))
}

func TestCreate_InvalidTitleIs422(t *testing.T) {
	ctx := context.Background()
	_, c := newServer(t)

	err := c.Create(ctx, model.NewTodo{Title: strings.Repeat("x", model.MaxTitleLen+1)})
	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
}

func TestHandler_StatusCodes(t *testing.T) {
	ts, _ := newServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"create", http.MethodPost, "/api/todo", `{"title":"a"}`, http.StatusCreated},
		{"create empty title", http.MethodPost, "/api/todo", `{"title":"  "}`, http.StatusUnprocessableEntity},
		{"create bad json", http.MethodPost, "/api/todo", `{`, http.StatusBadRequest},
		{"find", http.MethodGet, "/api/todo/search/1", "", http.StatusOK},
		{"find non-numeric", http.MethodGet, "/api/todo/search/abc", "", http.StatusNotFound},
		{"patch missing", http.MethodPatch, "/api/todo/search/42", `{"completed":true}`, http.StatusNotFound},
		{"patch empty title", http.MethodPatch, "/api/todo/search/1", `{"title":""}`, http.StatusUnprocessableEntity},
		{"delete", http.MethodDelete, "/api/todo/search/1", "", http.StatusNoContent},
		{"delete again", http.MethodDelete, "/api/todo/search/1", "", http.StatusNotFound},
		{"preflight", http.MethodOptions, "/api/todo", "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, ts.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}
