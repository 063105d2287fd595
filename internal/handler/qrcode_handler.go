package handler

import (
	"boxseek-go/internal/service"
	"boxseek-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// QrCodeHandler 处理二维码生命周期相关的 API 请求。
type QrCodeHandler struct {
	qrCodeService service.QrCodeService
}

// NewQrCodeHandler 创建一个新的 QrCodeHandler 实例。
func NewQrCodeHandler(qrCodeService service.QrCodeService) *QrCodeHandler {
	return &QrCodeHandler{qrCodeService: qrCodeService}
}

// GenerateBatchRequest 是批量生成二维码的请求体。
// Count 用指针以区分"缺少字段"和"传了 0"：
// 数量的取值范围校验统一由服务层回答。
type GenerateBatchRequest struct {
	Count *int `json:"count" binding:"required"`
}

// GenerateBatch 处理批量预生成二维码的请求。
func (h *QrCodeHandler) GenerateBatch(c *gin.Context) {
	var req GenerateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[QrCodeHandler] 批量生成请求参数无效: %v", err)
		badRequest(c, "无效的请求参数")
		return
	}

	codes, err := h.qrCodeService.GenerateBatch(c.Request.Context(), workspaceID(c), *req.Count)
	if err != nil {
		log.Warnf("[QrCodeHandler] 批量生成二维码失败: count=%d, err=%v", *req.Count, err)
		fail(c, err)
		return
	}
	log.Infof("[QrCodeHandler] 批量生成二维码成功, 共 %d 个", len(codes))
	ok(c, codes)
}

// MarkPrinted 处理标记二维码已打印的请求。
func (h *QrCodeHandler) MarkPrinted(c *gin.Context) {
	code, err := h.qrCodeService.MarkPrinted(c.Request.Context(), workspaceID(c), c.Param("id"))
	if err != nil {
		log.Warnf("[QrCodeHandler] 标记已打印失败: id=%s, err=%v", c.Param("id"), err)
		fail(c, err)
		return
	}
	ok(c, code)
}

// List 处理列出二维码的请求，支持按 status 过滤。
func (h *QrCodeHandler) List(c *gin.Context) {
	codes, err := h.qrCodeService.List(c.Request.Context(), workspaceID(c), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, codes)
}

// Resolve 处理扫码解析请求：把短标识符解析为登记流程或已有箱子。
func (h *QrCodeHandler) Resolve(c *gin.Context) {
	shortID := c.Param("shortId")
	res, err := h.qrCodeService.Resolve(c.Request.Context(), workspaceID(c), shortID)
	if err != nil {
		log.Warnf("[QrCodeHandler] 扫码解析失败: shortId=%s, err=%v", shortID, err)
		fail(c, err)
		return
	}
	ok(c, res)
}
