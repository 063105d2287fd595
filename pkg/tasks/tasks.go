// Package tasks 定义了通过 Kafka 传递的事件负载结构。
// 事件的消费方（例如标签渲染服务）在本服务之外。
package tasks

// LabelBatchEvent 在一批二维码生成完毕后发出。
// 标签渲染服务消费它来排版打印标签页，只需要短标识符列表。
type LabelBatchEvent struct {
	WorkspaceID string   `json:"workspaceId"`
	BatchSize   int      `json:"batchSize"`
	ShortIDs    []string `json:"shortIds"`
}

// BoxLifecycleEvent 在箱子创建或删除时发出，供下游系统同步状态。
type BoxLifecycleEvent struct {
	WorkspaceID string `json:"workspaceId"`
	BoxID       string `json:"boxId"`
	ShortID     string `json:"shortId"`
	Action      string `json:"action"` // created / deleted
}
