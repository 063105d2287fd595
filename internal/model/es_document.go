package model

// BoxSearchDoc 是写入 Elasticsearch 的箱子搜索文档。
// 与数据库中的 SearchText 字段同源：每次箱子写入时同步重算并推送。
type BoxSearchDoc struct {
	BoxID       string   `json:"box_id"`
	WorkspaceID string   `json:"workspace_id"`
	ShortID     string   `json:"short_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	LocationID  string   `json:"location_id,omitempty"`
	SearchText  string   `json:"search_text"`
}

// BoxSearchResult 是搜索接口返回给前端的单条命中结果。
type BoxSearchResult struct {
	BoxID       string   `json:"boxId"`
	ShortID     string   `json:"shortId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	LocationID  string   `json:"locationId,omitempty"`
	Score       float64  `json:"score"`
}
