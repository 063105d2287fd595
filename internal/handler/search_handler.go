package handler

import (
	"strconv"

	"boxseek-go/internal/service"
	"boxseek-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// SearchHandler 处理箱子搜索相关的 API 请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchBoxes 处理箱子关键词搜索请求。
func (h *SearchHandler) SearchBoxes(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		log.Warnf("[SearchHandler] 搜索请求失败: query 参数为空")
		badRequest(c, "无效的查询参数")
		return
	}

	topKStr := c.DefaultQuery("topK", "20")
	topK, err := strconv.Atoi(topKStr)
	if err != nil || topK <= 0 {
		topK = 20
	}

	results, err := h.searchService.SearchBoxes(c.Request.Context(), workspaceID(c), query, topK)
	if err != nil {
		log.Errorf("[SearchHandler] 搜索服务返回错误: %v", err)
		fail(c, err)
		return
	}

	log.Infof("[SearchHandler] 搜索成功, query: '%s', 返回 %d 条结果", query, len(results))
	ok(c, results)
}
