package upload_test

import (
	"net/http"
	"testing"
	"upload-coordinator/internal/adapters/handlers/http/chi/v1/upload"
	"upload-coordinator/internal/core/domain"
	upload2 "upload-coordinator/internal/core/service/upload"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCommitUploadV1(t *testing.T) {
	t.Run("success - object finalized", func(t *testing.T) {
		// Arrange
		id := uuid.New()
		mockService := upload2.NewMockUploadService()
		mockService.On("CommitSession", mock.Anything, id, []domain.ClaimedPart{
			{Index: 0, Checksum: "c0"},
			{Index: 1, Checksum: "c1"},
		}).Return(&domain.CommitResult{FileID: "uploads/" + id.String(), Location: "http://store/obj", ETag: "final-2"}, nil)
		h := newRouter(mockService)

		body := jsonBody(t, upload.V1CommitRequest{Parts: []upload.V1ClaimedPart{
			{Index: 0, Checksum: "c0"},
			{Index: 1, Checksum: "c1"},
		}})

		// Act
		w := serve(h, http.MethodPost, "/api/v1/uploads/"+id.String()+"/commit", body)

		// Assert
		assert.Equal(t, http.StatusCreated, w.Code)

		var response upload.V1CommitResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "uploads/"+id.String(), response.FileID)
		assert.Equal(t, "final-2", response.ETag)
		mockService.AssertExpectations(t)
	})

	t.Run("error - parts invalid lists indices", func(t *testing.T) {
		// Arrange
		id := uuid.New()
		mockService := upload2.NewMockUploadService()
		mockService.On("CommitSession", mock.Anything, id, mock.Anything).
			Return((*domain.CommitResult)(nil), &domain.PartsInvalidError{Missing: []int{4, 7}, Mismatched: []int{1}})
		h := newRouter(mockService)

		// Act
		w := serve(h, http.MethodPost, "/api/v1/uploads/"+id.String()+"/commit", jsonBody(t, upload.V1CommitRequest{}))

		// Assert
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response upload.V1PartsInvalidResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, domain.ErrPartsInvalid.Error(), response.Error)
		assert.Equal(t, []int{4, 7}, response.Missing)
		assert.Equal(t, []int{1}, response.Mismatched)
	})

	t.Run("error - malformed body", func(t *testing.T) {
		// Arrange
		mockService := upload2.NewMockUploadService()
		h := newRouter(mockService)

		// Act
		w := serve(h, http.MethodPost, "/api/v1/uploads/"+uuid.NewString()+"/commit", jsonBody(t, "not an object"))

		// Assert
		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "CommitSession", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("error - service errors mapped", func(t *testing.T) {
		tests := []struct {
			name   string
			err    error
			status int
		}{
			{"claim out of range", domain.ErrInvalidPartIndex, http.StatusBadRequest},
			{"already committed", domain.ErrSessionClosed, http.StatusConflict},
			{"expired", domain.ErrSessionNotFound, http.StatusNotFound},
			{"finalize failure", domain.Upstream("complete multipart", assert.AnError), http.StatusBadGateway},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				// Arrange
				id := uuid.New()
				mockService := upload2.NewMockUploadService()
				mockService.On("CommitSession", mock.Anything, id, mock.Anything).
					Return((*domain.CommitResult)(nil), tt.err)
				h := newRouter(mockService)

				// Act
				w := serve(h, http.MethodPost, "/api/v1/uploads/"+id.String()+"/commit", jsonBody(t, upload.V1CommitRequest{}))

				// Assert
				assert.Equal(t, tt.status, w.Code)
				mockService.AssertExpectations(t)
			})
		}
	})
}

func TestAbortUploadV1(t *testing.T) {
	t.Run("success - aborted", func(t *testing.T) {
		// Arrange
		id := uuid.New()
		mockService := upload2.NewMockUploadService()
		mockService.On("AbortSession", mock.Anything, id).Return(nil)
		h := newRouter(mockService)

		// Act
		w := serve(h, http.MethodPost, "/api/v1/uploads/"+id.String()+"/abort", nil)

		// Assert
		assert.Equal(t, http.StatusOK, w.Code)

		var response upload.V1AbortResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, id, response.UploadID)
		assert.Equal(t, domain.UploadStatusAborted, response.Status)
		mockService.AssertExpectations(t)
	})

	t.Run("error - committed session", func(t *testing.T) {
		// Arrange
		id := uuid.New()
		mockService := upload2.NewMockUploadService()
		mockService.On("AbortSession", mock.Anything, id).Return(domain.ErrSessionClosed)
		h := newRouter(mockService)

		// Act
		w := serve(h, http.MethodPost, "/api/v1/uploads/"+id.String()+"/abort", nil)

		// Assert
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
