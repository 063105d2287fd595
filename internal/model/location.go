// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"strings"
	"time"
)

// MaxLocationDepth 是位置树允许的最大深度，根节点深度为 1。
const MaxLocationDepth = 5

// Location 对应于数据库中的 'locations' 表。
// 它表示工作区内层级化的物理存放位置（如房间、货架）。
type Location struct {
	// ID 是位置的唯一标识符（UUID），作为主键。
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
	// WorkspaceID 标识该位置所属的工作区，所有查询都必须按它过滤。
	WorkspaceID string `gorm:"type:varchar(36);not null;index" json:"workspaceId"`
	// ParentID 指向父位置的 ID。使用指针以接受 NULL 值，表示根位置。
	ParentID *string `gorm:"type:varchar(36)" json:"parentId"`
	// Name 是位置的显示名称。
	Name string `gorm:"type:varchar(100);not null" json:"name"`
	// Path 是物化路径：从根到本节点的 ID 序列，形如 "/id1/id2/id3"。
	// 深度计算、成环检测和子树查询都基于它，移动时整棵子树同步重写。
	Path string `gorm:"type:varchar(255);not null;index" json:"path"`
	// Deleted 是软删除标记。软删除的位置保留行记录，但从活动树中排除。
	Deleted bool `gorm:"not null;default:false" json:"deleted"`
	// CreatedAt 由 GORM 自动管理，记录创建时间。
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	// UpdatedAt 由 GORM 自动管理，记录最后更新时间。
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Location) TableName() string {
	return "locations"
}

// Depth 返回该位置在树中的深度，根节点为 1。
func (l *Location) Depth() int {
	return PathDepth(l.Path)
}

// PathDepth 计算一条物化路径的深度。
func PathDepth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, "/")
}

// PathIDs 把物化路径拆成从根开始的 ID 序列。
func PathIDs(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// LocationNode 表示活动位置树中的一个节点。
type LocationNode struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	ParentID *string         `json:"parentId"`
	Children []*LocationNode `json:"children"`
}

// BreadcrumbEntry 是面包屑导航中的一项，从根开始有序排列。
type BreadcrumbEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
