package model

import "time"

// 二维码状态。批量生成后是 GENERATED，渲染过标签页后是 PRINTED，
// 绑定到箱子后是 ASSIGNED；箱子销毁后回到 GENERATED，可以无限复用。
const (
	QrStatusGenerated = "GENERATED"
	QrStatusPrinted   = "PRINTED"
	QrStatusAssigned  = "ASSIGNED"
)

// QrCode 对应于数据库中的 'qr_codes' 表。
// 它表示一个预先生成、可打印、可被扫描的短标识码，
// 与箱子独立生命周期，最终最多绑定到一个箱子。
type QrCode struct {
	// ID 是二维码的唯一标识符（UUID），作为主键。
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
	// WorkspaceID 标识该二维码所属的工作区。
	WorkspaceID string `gorm:"type:varchar(36);not null;index" json:"workspaceId"`
	// ShortID 是印在标签上的短标识符，格式为 "QR-" 加 6 位大写字母数字，
	// 全局唯一。扫码解析依赖这个格式完全一致。
	ShortID string `gorm:"type:varchar(16);not null;uniqueIndex" json:"shortId"`
	// Status 是二维码的生命周期状态。
	Status string `gorm:"type:varchar(16);not null;default:GENERATED" json:"status"`
	// BoxID 指向绑定的箱子。不变式：Status = ASSIGNED 当且仅当 BoxID 非空。
	// 唯一索引保证一个箱子最多被一个二维码指向。
	BoxID *string `gorm:"type:varchar(36);uniqueIndex" json:"boxId"`
	// CreatedAt 由 GORM 自动管理，记录创建时间。
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (QrCode) TableName() string {
	return "qr_codes"
}
