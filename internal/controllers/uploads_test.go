package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"iruka_console/internal/models"
	"iruka_console/internal/services"
	"iruka_console/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUploader struct{ mock.Mock }

func (m *mockUploader) RequestUploadSlot(ctx context.Context, actor services.Actor, ref services.GameRef, version, fileName string) (*services.UploadSlot, error) {
	args := m.Called(ctx, actor, ref, version, fileName)
	if v, ok := args.Get(0).(*services.UploadSlot); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUploader) UploadDirect(ctx context.Context, actor services.Actor, ref services.GameRef, version, fileName string, data []byte) (*models.GameVersion, error) {
	args := m.Called(ctx, actor, ref, version, fileName, data)
	if v, ok := args.Get(0).(*models.GameVersion); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUploader) CompleteUpload(ctx context.Context, actor services.Actor, ref services.GameRef, version, storagePath, fileName string, fileSize int64) (*models.GameVersion, error) {
	args := m.Called(ctx, actor, ref, version, storagePath, fileName, fileSize)
	if v, ok := args.Get(0).(*models.GameVersion); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

const testMaxDirectBytes = 64

func setupUploadController() (*UploadController, *mockUploader) {
	uploader := new(mockUploader)
	return NewUploadController(uploader, testMaxDirectBytes, testLogger()), uploader
}

func TestUploadController_RequestUploadSlot(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		controller, uploader := setupUploadController()

		uploader.On("RequestUploadSlot",
			mock.Anything,
			services.Actor{UserID: 7},
			services.GameRef{Slug: "com.iruka.counting"},
			"1.0.0",
			"game.zip",
		).Return(&services.UploadSlot{
			UploadURL:   "https://upload.example/games/com.iruka.counting/1.0.0/game.zip?sig=test",
			StoragePath: "games/com.iruka.counting/1.0.0",
		}, nil)

		body, _ := json.Marshal(UploadSlotRequest{FileName: "game.zip"})
		r := newAuthedRequest(http.MethodPost, "/api/games/com.iruka.counting/versions/1.0.0/upload-url",
			bytes.NewReader(body), 7, false,
			map[string]string{"gameRef": "com.iruka.counting", "version": "1.0.0"})
		w := httptest.NewRecorder()

		controller.RequestUploadSlot(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var slot services.UploadSlot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slot))
		assert.Equal(t, "games/com.iruka.counting/1.0.0", slot.StoragePath)
		uploader.AssertExpectations(t)
	})

	t.Run("forbidden", func(t *testing.T) {
		controller, uploader := setupUploadController()

		uploader.On("RequestUploadSlot", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, storage.ErrForbidden)

		body, _ := json.Marshal(UploadSlotRequest{FileName: "game.zip"})
		r := newAuthedRequest(http.MethodPost, "/api/games/3/versions/1.0.0/upload-url",
			bytes.NewReader(body), 99, false,
			map[string]string{"gameRef": "3", "version": "1.0.0"})
		w := httptest.NewRecorder()

		controller.RequestUploadSlot(w, r)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestUploadController_Upload(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		controller, uploader := setupUploadController()

		archive := []byte("fake zip bytes")
		uploader.On("UploadDirect",
			mock.Anything,
			services.Actor{UserID: 7},
			services.GameRef{ID: 3},
			"1.0.0",
			"game.zip",
			archive,
		).Return(&models.GameVersion{ID: 12, Status: models.StatusDraft}, nil)

		r := newAuthedRequest(http.MethodPost, "/api/games/3/versions/1.0.0/upload?file_name=game.zip",
			bytes.NewReader(archive), 7, false,
			map[string]string{"gameRef": "3", "version": "1.0.0"})
		w := httptest.NewRecorder()

		controller.Upload(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		uploader.AssertExpectations(t)
	})

	t.Run("missing file name", func(t *testing.T) {
		controller, uploader := setupUploadController()

		r := newAuthedRequest(http.MethodPost, "/api/games/3/versions/1.0.0/upload",
			bytes.NewReader([]byte("zip")), 7, false,
			map[string]string{"gameRef": "3", "version": "1.0.0"})
		w := httptest.NewRecorder()

		controller.Upload(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		uploader.AssertNotCalled(t, "UploadDirect",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("oversize body is redirected to the slot flow", func(t *testing.T) {
		controller, uploader := setupUploadController()

		oversize := bytes.Repeat([]byte("x"), testMaxDirectBytes+1)
		r := newAuthedRequest(http.MethodPost, "/api/games/3/versions/1.0.0/upload?file_name=game.zip",
			bytes.NewReader(oversize), 7, false,
			map[string]string{"gameRef": "3", "version": "1.0.0"})
		w := httptest.NewRecorder()

		controller.Upload(w, r)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		uploader.AssertNotCalled(t, "UploadDirect",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("extraction failure", func(t *testing.T) {
		controller, uploader := setupUploadController()

		uploader.On("UploadDirect",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, storage.ErrExtraction)

		r := newAuthedRequest(http.MethodPost, "/api/games/3/versions/1.0.0/upload?file_name=game.zip",
			bytes.NewReader([]byte("not a zip")), 7, false,
			map[string]string{"gameRef": "3", "version": "1.0.0"})
		w := httptest.NewRecorder()

		controller.Upload(w, r)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestUploadController_Complete(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		controller, uploader := setupUploadController()

		uploader.On("CompleteUpload",
			mock.Anything,
			services.Actor{UserID: 7},
			services.GameRef{ID: 3},
			"1.0.0",
			"games/com.iruka.counting/1.0.0",
			"game.zip",
			int64(2048),
		).Return(&models.GameVersion{ID: 12, Status: models.StatusDraft}, nil)

		body, _ := json.Marshal(CompleteUploadRequest{
			StoragePath: "games/com.iruka.counting/1.0.0",
			FileName:    "game.zip",
			FileSize:    2048,
		})
		r := newAuthedRequest(http.MethodPost, "/api/games/3/versions/1.0.0/complete",
			bytes.NewReader(body), 7, false,
			map[string]string{"gameRef": "3", "version": "1.0.0"})
		w := httptest.NewRecorder()

		controller.Complete(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		uploader.AssertExpectations(t)
	})

	t.Run("duplicate version conflict", func(t *testing.T) {
		controller, uploader := setupUploadController()

		uploader.On("CompleteUpload",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything,
			mock.Anything, mock.Anything, mock.Anything).
			Return(nil, storage.ErrDuplicateVersion)

		body, _ := json.Marshal(CompleteUploadRequest{
			StoragePath: "games/com.iruka.counting/1.0.0",
			FileName:    "game.zip",
		})
		r := newAuthedRequest(http.MethodPost, "/api/games/3/versions/1.0.0/complete",
			bytes.NewReader(body), 7, false,
			map[string]string{"gameRef": "3", "version": "1.0.0"})
		w := httptest.NewRecorder()

		controller.Complete(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
