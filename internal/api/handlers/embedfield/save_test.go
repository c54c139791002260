package embedfield

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Embedfield/internal/core/embeds"
)

func postSave(t *testing.T, handler *SaveHandler, body string) (*httptest.ResponseRecorder, saveResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/embedfield/save", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	handler.HandleSave(rr, req)

	var resp saveResponse
	if rr.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	}
	return rr, resp
}

func TestHandleSave_CreatesNewRecord(t *testing.T) {
	repo := newFakeRepo()
	resolver := resolverFunc(func(context.Context, string) (*embeds.RawEmbedInfo, error) {
		return videoRawInfo(), nil
	})
	handler := NewSaveHandler(newTestCoordinator(repo, resolver), repo)

	rr, resp := postSave(t, handler, `{"sourceurl": "https://youtube.com/watch?v=abc", "current": 0}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "fetch_new", resp.Outcome)
	assert.NotZero(t, resp.Reference)

	stored, err := repo.GetByID(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, "https://youtube.com/watch?v=abc", stored.SourceURL)
	assert.Equal(t, "Test Video", stored.Title)
}

func TestHandleSave_ClearDeletesCurrent(t *testing.T) {
	repo := newFakeRepo()
	existing := &embeds.EmbedRecord{SourceURL: "https://youtube.com/watch?v=old", Exists: true}
	require.NoError(t, repo.Create(context.Background(), existing))

	handler := NewSaveHandler(newTestCoordinator(repo, resolverFunc(nil)), repo)

	rr, resp := postSave(t, handler, fmt.Sprintf(`{"sourceurl": "", "current": %d}`, existing.ID))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "clear", resp.Outcome)
	assert.Zero(t, resp.Reference)
	assert.Equal(t, existing.ID, resp.DeletedID)

	_, err := repo.GetByID(context.Background(), existing.ID)
	assert.ErrorIs(t, err, embeds.ErrRecordNotFound)
}

func TestHandleSave_UnchangedURLSkipsWork(t *testing.T) {
	repo := newFakeRepo()
	existing := &embeds.EmbedRecord{SourceURL: "https://youtube.com/watch?v=abc", Exists: true}
	require.NoError(t, repo.Create(context.Background(), existing))

	resolver := resolverFunc(func(context.Context, string) (*embeds.RawEmbedInfo, error) {
		t.Fatal("resolver should not be called for an unchanged URL")
		return nil, nil
	})
	handler := NewSaveHandler(newTestCoordinator(repo, resolver), repo)

	rr, resp := postSave(t, handler, fmt.Sprintf(`{"sourceurl": "https://youtube.com/watch?v=abc", "current": %d}`, existing.ID))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "unchanged", resp.Outcome)
	assert.Equal(t, existing.ID, resp.Reference)
}

func TestHandleSave_ReplaceDeletesOldRecord(t *testing.T) {
	repo := newFakeRepo()
	existing := &embeds.EmbedRecord{SourceURL: "https://youtube.com/watch?v=old", Exists: true}
	require.NoError(t, repo.Create(context.Background(), existing))

	resolver := resolverFunc(func(context.Context, string) (*embeds.RawEmbedInfo, error) {
		return videoRawInfo(), nil
	})
	handler := NewSaveHandler(newTestCoordinator(repo, resolver), repo)

	rr, resp := postSave(t, handler, fmt.Sprintf(`{"sourceurl": "https://youtube.com/watch?v=abc", "current": %d}`, existing.ID))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "fetch_new", resp.Outcome)
	assert.NotEqual(t, existing.ID, resp.Reference)
	assert.Equal(t, existing.ID, resp.DeletedID)

	_, err := repo.GetByID(context.Background(), existing.ID)
	assert.ErrorIs(t, err, embeds.ErrRecordNotFound)
}

func TestHandleSave_ReusesExistingSource(t *testing.T) {
	repo := newFakeRepo()
	shared := &embeds.EmbedRecord{
		SourceURL: "https://youtube.com/watch?v=abc",
		Title:     "Shared Video",
		Exists:    true,
	}
	require.NoError(t, repo.Create(context.Background(), shared))

	resolver := resolverFunc(func(context.Context, string) (*embeds.RawEmbedInfo, error) {
		t.Fatal("resolver should not be called when the URL is already on record")
		return nil, nil
	})
	handler := NewSaveHandler(newTestCoordinator(repo, resolver), repo)

	rr, resp := postSave(t, handler, `{"sourceurl": "https://youtube.com/watch?v=abc", "current": 0}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "reuse", resp.Outcome)
	assert.NotZero(t, resp.Reference)
	assert.NotEqual(t, shared.ID, resp.Reference)

	dup, err := repo.GetByID(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, "Shared Video", dup.Title)
}

func TestHandleSave_StaleCurrentReference(t *testing.T) {
	repo := newFakeRepo()
	resolver := resolverFunc(func(context.Context, string) (*embeds.RawEmbedInfo, error) {
		return videoRawInfo(), nil
	})
	handler := NewSaveHandler(newTestCoordinator(repo, resolver), repo)

	rr, resp := postSave(t, handler, `{"sourceurl": "https://youtube.com/watch?v=abc", "current": 999}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "fetch_new", resp.Outcome)
	assert.NotZero(t, resp.Reference)
}

func TestHandleSave_FetchFailure(t *testing.T) {
	repo := newFakeRepo()
	resolver := resolverFunc(func(context.Context, string) (*embeds.RawEmbedInfo, error) {
		return nil, fmt.Errorf("connection refused")
	})
	handler := NewSaveHandler(newTestCoordinator(repo, resolver), repo)

	rr, _ := postSave(t, handler, `{"sourceurl": "https://youtube.com/watch?v=abc", "current": 0}`)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Empty(t, repo.records)
}

func TestHandleSave_TypeMismatch(t *testing.T) {
	repo := newFakeRepo()
	resolver := resolverFunc(func(context.Context, string) (*embeds.RawEmbedInfo, error) {
		return videoRawInfo(), nil
	})
	handler := NewSaveHandler(newTestCoordinator(repo, resolver, embeds.WithRequiredType("photo")), repo)

	rr, _ := postSave(t, handler, `{"sourceurl": "https://youtube.com/watch?v=abc", "current": 0}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Empty(t, repo.records)
}

func TestHandleSave_RejectsGet(t *testing.T) {
	repo := newFakeRepo()
	handler := NewSaveHandler(newTestCoordinator(repo, resolverFunc(nil)), repo)

	req := httptest.NewRequest(http.MethodGet, "/embedfield/save", nil)
	rr := httptest.NewRecorder()
	handler.HandleSave(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
