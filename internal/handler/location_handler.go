package handler

import (
	"boxseek-go/internal/service"
	"boxseek-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// LocationHandler 处理位置树相关的 API 请求。
type LocationHandler struct {
	locationService service.LocationService
}

// NewLocationHandler 创建一个新的 LocationHandler 实例。
func NewLocationHandler(locationService service.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

// CreateLocationRequest 是创建位置的请求体。
type CreateLocationRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parentId"`
}

// Create 处理创建位置的请求。
func (h *LocationHandler) Create(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[LocationHandler] 创建位置请求参数无效: %v", err)
		badRequest(c, "无效的请求参数")
		return
	}

	loc, err := h.locationService.Create(c.Request.Context(), workspaceID(c), req.ParentID, req.Name)
	if err != nil {
		log.Warnf("[LocationHandler] 创建位置失败: %v", err)
		fail(c, err)
		return
	}
	ok(c, loc)
}

// Get 处理获取单个位置的请求。
func (h *LocationHandler) Get(c *gin.Context) {
	loc, err := h.locationService.Get(c.Request.Context(), workspaceID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, loc)
}

// RenameLocationRequest 是重命名位置的请求体。
type RenameLocationRequest struct {
	Name string `json:"name" binding:"required"`
}

// Rename 处理重命名位置的请求。
func (h *LocationHandler) Rename(c *gin.Context) {
	var req RenameLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求参数")
		return
	}

	loc, err := h.locationService.Rename(c.Request.Context(), workspaceID(c), c.Param("id"), req.Name)
	if err != nil {
		log.Warnf("[LocationHandler] 重命名位置失败: id=%s, err=%v", c.Param("id"), err)
		fail(c, err)
		return
	}
	ok(c, loc)
}

// MoveLocationRequest 是移动位置的请求体，ParentID 为 null 表示移到根层。
type MoveLocationRequest struct {
	ParentID *string `json:"parentId"`
}

// Move 处理移动位置的请求。
func (h *LocationHandler) Move(c *gin.Context) {
	var req MoveLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求参数")
		return
	}

	loc, err := h.locationService.Move(c.Request.Context(), workspaceID(c), c.Param("id"), req.ParentID)
	if err != nil {
		log.Warnf("[LocationHandler] 移动位置失败: id=%s, err=%v", c.Param("id"), err)
		fail(c, err)
		return
	}
	ok(c, loc)
}

// Delete 处理软删除位置的请求。
func (h *LocationHandler) Delete(c *gin.Context) {
	if err := h.locationService.SoftDelete(c.Request.Context(), workspaceID(c), c.Param("id")); err != nil {
		log.Warnf("[LocationHandler] 删除位置失败: id=%s, err=%v", c.Param("id"), err)
		fail(c, err)
		return
	}
	ok(c, nil)
}

// Breadcrumb 处理获取位置面包屑的请求。
func (h *LocationHandler) Breadcrumb(c *gin.Context) {
	entries, err := h.locationService.Breadcrumb(c.Request.Context(), workspaceID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, entries)
}

// GetTree 处理获取整棵位置树的请求。
func (h *LocationHandler) GetTree(c *gin.Context) {
	tree, err := h.locationService.GetTree(c.Request.Context(), workspaceID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, tree)
}
