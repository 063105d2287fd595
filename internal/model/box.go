package model

import (
	"strings"
	"time"
)

// Box 对应于数据库中的 'boxes' 表。
// 它表示一个被登记的实体收纳箱，可以选择性地放在某个位置、绑定一个二维码。
type Box struct {
	// ID 是箱子的唯一标识符（UUID），作为主键。
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
	// WorkspaceID 标识该箱子所属的工作区。
	WorkspaceID string `gorm:"type:varchar(36);not null;index" json:"workspaceId"`
	// ShortID 是人类可读的短标识符，全局唯一（跨工作区）。
	ShortID string `gorm:"type:varchar(16);not null;uniqueIndex" json:"shortId"`
	// Name 是箱子的显示名称。
	Name string `gorm:"type:varchar(100);not null" json:"name"`
	// Description 提供了对箱子内容更详细的描述。
	Description string `gorm:"type:text" json:"description"`
	// Tags 以逗号分隔存储标签集合。
	Tags string `gorm:"type:varchar(500)" json:"-"`
	// LocationID 指向箱子所在的位置。NULL 表示在"未分配池"中。
	LocationID *string `gorm:"type:varchar(36);index" json:"locationId"`
	// CodeID 指向绑定的二维码。与 QrCode.BoxID 互为镜像，两边总是在
	// 同一个事务里一起更新。唯一索引保证一个二维码最多被一个箱子引用。
	CodeID *string `gorm:"type:varchar(36);uniqueIndex" json:"codeId"`
	// SearchText 是规范化后的搜索文档，每次写入时同步重算。
	SearchText string `gorm:"type:text" json:"-"`
	// PhotoKey 是箱子照片在对象存储中的 key。
	PhotoKey *string `gorm:"type:varchar(255)" json:"photoKey"`
	// CreatedAt 由 GORM 自动管理，记录创建时间。
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	// UpdatedAt 由 GORM 自动管理，记录最后更新时间。
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Box) TableName() string {
	return "boxes"
}

// TagList 把逗号分隔的标签拆成切片。
func (b *Box) TagList() []string {
	return SplitTags(b.Tags)
}

// JoinTags 把标签切片合并为逗号分隔的存储格式，忽略空白项。
func JoinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return strings.Join(cleaned, ",")
}

// SplitTags 把逗号分隔的标签字符串拆成切片。
func SplitTags(tags string) []string {
	if tags == "" {
		return []string{}
	}
	parts := strings.Split(tags, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
