// Package repository 包含了所有与数据库交互的逻辑。
// 每个查询都显式按 workspace_id 过滤，租户隔离不依赖存储引擎的任何隐式机制。
package repository

import (
	"boxseek-go/internal/model"

	"gorm.io/gorm"
)

// LocationRepository 接口定义了位置树的数据操作方法。
type LocationRepository interface {
	// WithTx 返回一个绑定到指定事务的仓库实例。
	WithTx(tx *gorm.DB) LocationRepository
	Create(loc *model.Location) error
	// FindByID 不带工作区过滤地查找位置，用于区分"不存在"和"属于其他工作区"。
	FindByID(id string) (*model.Location, error)
	// FindActive 查找指定工作区内未被软删除的位置。
	FindActive(workspaceID, id string) (*model.Location, error)
	FindAllActive(workspaceID string) ([]model.Location, error)
	// FindSubtree 查找物化路径以给定前缀开头的所有位置（严格后代）。
	// 软删除的行也包含在内：移动时整棵子树的路径要一起重写，
	// 路径和父链的一致性对所有行成立，不只是活动行。
	FindSubtree(workspaceID, pathPrefix string) ([]model.Location, error)
	FindBatchByIDs(workspaceID string, ids []string) ([]model.Location, error)
	Update(loc *model.Location) error
}

type locationRepository struct {
	db *gorm.DB
}

// NewLocationRepository 创建一个新的 LocationRepository 实例。
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{db: db}
}

func (r *locationRepository) WithTx(tx *gorm.DB) LocationRepository {
	return &locationRepository{db: tx}
}

// Create 在数据库中插入一个新的位置记录。
func (r *locationRepository) Create(loc *model.Location) error {
	return r.db.Create(loc).Error
}

// FindByID 根据 ID 查找位置，不做工作区过滤。
func (r *locationRepository) FindByID(id string) (*model.Location, error) {
	var loc model.Location
	err := r.db.Where("id = ?", id).First(&loc).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// FindActive 查找工作区内一个未被软删除的位置。
func (r *locationRepository) FindActive(workspaceID, id string) (*model.Location, error) {
	var loc model.Location
	err := r.db.Where("workspace_id = ? AND id = ? AND deleted = ?", workspaceID, id, false).First(&loc).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// FindAllActive 检索工作区内所有未被软删除的位置。
func (r *locationRepository) FindAllActive(workspaceID string) ([]model.Location, error) {
	var locs []model.Location
	err := r.db.Where("workspace_id = ? AND deleted = ?", workspaceID, false).Find(&locs).Error
	return locs, err
}

// FindSubtree 查找路径前缀匹配的所有后代位置，包括软删除的行。
func (r *locationRepository) FindSubtree(workspaceID, pathPrefix string) ([]model.Location, error) {
	var locs []model.Location
	err := r.db.Where("workspace_id = ? AND path LIKE ?", workspaceID, pathPrefix+"%").
		Find(&locs).Error
	return locs, err
}

// FindBatchByIDs 在工作区内按 ID 列表批量查找位置。
func (r *locationRepository) FindBatchByIDs(workspaceID string, ids []string) ([]model.Location, error) {
	var locs []model.Location
	if len(ids) == 0 {
		return locs, nil
	}
	err := r.db.Where("workspace_id = ? AND id IN ?", workspaceID, ids).Find(&locs).Error
	return locs, err
}

// Update 更新数据库中一个已存在的位置记录。
func (r *locationRepository) Update(loc *model.Location) error {
	return r.db.Save(loc).Error
}
