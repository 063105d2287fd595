package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"boxseek-go/internal/apperr"
	"boxseek-go/internal/model"
	"boxseek-go/internal/repository"
	"boxseek-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubQrCodeService 只实现批量生成的参数校验语义，供 handler 测试使用。
type stubQrCodeService struct{}

func (s *stubQrCodeService) GenerateBatch(ctx context.Context, workspaceID string, count int) ([]model.QrCode, error) {
	if count < 1 || count > 100 {
		return nil, apperr.InvalidInput("批量生成数量必须在 1 到 100 之间")
	}
	return make([]model.QrCode, count), nil
}

func (s *stubQrCodeService) MarkPrinted(ctx context.Context, workspaceID, codeID string) (*model.QrCode, error) {
	return nil, apperr.NotFound("qr_code", codeID)
}

func (s *stubQrCodeService) List(ctx context.Context, workspaceID, status string) ([]model.QrCode, error) {
	return nil, nil
}

func (s *stubQrCodeService) Bind(tx *gorm.DB, workspaceID, codeID string, box *model.Box) (*model.QrCode, error) {
	return nil, apperr.NotFound("qr_code", codeID)
}

func (s *stubQrCodeService) Release(tx *gorm.DB, workspaceID, boxID string) (*model.QrCode, error) {
	return nil, nil
}

func (s *stubQrCodeService) Resolve(ctx context.Context, workspaceID, shortID string) (*repository.ScanResolution, error) {
	return nil, apperr.NotFound("qr_code", shortID)
}

var _ service.QrCodeService = (*stubQrCodeService)(nil)

func newBatchTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("workspaceId", "ws-1")
	})
	r.POST("/qrcodes/batch", NewQrCodeHandler(&stubQrCodeService{}).GenerateBatch)
	return r
}

func postBatch(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "/qrcodes/batch", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateBatchZeroCountGetsBatchSizeMessage(t *testing.T) {
	r := newBatchTestRouter()

	// count=0 要穿透到业务校验，拿到取值范围的提示，而不是通用的参数错误
	w := postBatch(t, r, `{"count":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "1 到 100")
}

func TestGenerateBatchMissingCountRejected(t *testing.T) {
	r := newBatchTestRouter()

	w := postBatch(t, r, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "无效的请求参数")
}

func TestGenerateBatchValidCountSucceeds(t *testing.T) {
	r := newBatchTestRouter()

	w := postBatch(t, r, `{"count":3}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")
}
