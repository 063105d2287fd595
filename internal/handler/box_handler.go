package handler

import (
	"boxseek-go/internal/model"
	"boxseek-go/internal/service"
	"boxseek-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// BoxHandler 处理箱子相关的 API 请求。
type BoxHandler struct {
	boxService service.BoxService
}

// NewBoxHandler 创建一个新的 BoxHandler 实例。
func NewBoxHandler(boxService service.BoxService) *BoxHandler {
	return &BoxHandler{boxService: boxService}
}

// boxDTO 是箱子的响应结构，标签以数组形式暴露。
type boxDTO struct {
	*model.Box
	Tags []string `json:"tags"`
}

func toBoxDTO(box *model.Box) boxDTO {
	return boxDTO{Box: box, Tags: box.TagList()}
}

func toBoxDTOs(boxes []model.Box) []boxDTO {
	dtos := make([]boxDTO, len(boxes))
	for i := range boxes {
		dtos[i] = toBoxDTO(&boxes[i])
	}
	return dtos
}

// CreateBoxRequest 是创建箱子的请求体。
type CreateBoxRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	LocationID  *string  `json:"locationId"`
	CodeID      *string  `json:"codeId"`
}

// Create 处理创建箱子的请求。
func (h *BoxHandler) Create(c *gin.Context) {
	var req CreateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[BoxHandler] 创建箱子请求参数无效: %v", err)
		badRequest(c, "无效的请求参数")
		return
	}

	box, err := h.boxService.Create(c.Request.Context(), workspaceID(c), service.CreateBoxInput{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		LocationID:  req.LocationID,
		CodeID:      req.CodeID,
	})
	if err != nil {
		log.Warnf("[BoxHandler] 创建箱子失败: %v", err)
		fail(c, err)
		return
	}
	ok(c, toBoxDTO(box))
}

// Get 处理获取单个箱子的请求。
func (h *BoxHandler) Get(c *gin.Context) {
	box, err := h.boxService.Get(c.Request.Context(), workspaceID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, toBoxDTO(box))
}

// List 处理列出箱子的请求，支持 locationId 过滤和 unassigned=true 未分配池。
func (h *BoxHandler) List(c *gin.Context) {
	unassigned := c.Query("unassigned") == "true"
	boxes, err := h.boxService.List(c.Request.Context(), workspaceID(c), c.Query("locationId"), unassigned)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, toBoxDTOs(boxes))
}

// UpdateBoxRequest 是更新箱子的补丁请求体。
// 缺省字段不修改；locationId/codeId 传空字符串表示解除关联。
type UpdateBoxRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	LocationID  *string   `json:"locationId"`
	CodeID      *string   `json:"codeId"`
}

// Update 处理更新箱子的请求。
func (h *BoxHandler) Update(c *gin.Context) {
	var req UpdateBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "无效的请求参数")
		return
	}

	box, err := h.boxService.Update(c.Request.Context(), workspaceID(c), c.Param("id"), service.UpdateBoxInput{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		LocationID:  req.LocationID,
		CodeID:      req.CodeID,
	})
	if err != nil {
		log.Warnf("[BoxHandler] 更新箱子失败: id=%s, err=%v", c.Param("id"), err)
		fail(c, err)
		return
	}
	ok(c, toBoxDTO(box))
}

// Delete 处理销毁箱子的请求。
func (h *BoxHandler) Delete(c *gin.Context) {
	if err := h.boxService.Delete(c.Request.Context(), workspaceID(c), c.Param("id")); err != nil {
		log.Warnf("[BoxHandler] 删除箱子失败: id=%s, err=%v", c.Param("id"), err)
		fail(c, err)
		return
	}
	ok(c, nil)
}

// UploadPhoto 处理上传箱子照片的请求（multipart 表单字段 photo）。
func (h *BoxHandler) UploadPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		log.Warnf("[BoxHandler] 上传照片请求缺少文件: %v", err)
		badRequest(c, "缺少 photo 文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("[BoxHandler] 打开上传文件失败: %v", err)
		badRequest(c, "无法读取上传文件")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	box, err := h.boxService.UploadPhoto(c.Request.Context(), workspaceID(c), c.Param("id"), fileHeader.Filename, contentType, file, fileHeader.Size)
	if err != nil {
		log.Warnf("[BoxHandler] 上传箱子照片失败: id=%s, err=%v", c.Param("id"), err)
		fail(c, err)
		return
	}
	ok(c, toBoxDTO(box))
}

// PhotoURL 处理获取箱子照片预签名地址的请求。
func (h *BoxHandler) PhotoURL(c *gin.Context) {
	url, err := h.boxService.PhotoURL(c.Request.Context(), workspaceID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"url": url})
}
