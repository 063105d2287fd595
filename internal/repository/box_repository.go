package repository

import (
	"boxseek-go/internal/model"

	"gorm.io/gorm"
)

// BoxRepository 接口定义了箱子的数据操作方法。
type BoxRepository interface {
	// WithTx 返回一个绑定到指定事务的仓库实例。
	WithTx(tx *gorm.DB) BoxRepository
	Create(box *model.Box) error
	FindByID(workspaceID, id string) (*model.Box, error)
	FindAll(workspaceID string) ([]model.Box, error)
	// FindByLocation 查找放在指定位置的箱子。
	FindByLocation(workspaceID, locationID string) ([]model.Box, error)
	// FindUnassigned 查找未分配位置（处于未分配池）的箱子。
	FindUnassigned(workspaceID string) ([]model.Box, error)
	Update(box *model.Box) error
	Delete(workspaceID, id string) error
	// UnassignByLocation 把指定位置下的所有箱子移入未分配池。
	// 软删除位置时调用，只影响直接挂在该位置下的箱子。
	UnassignByLocation(workspaceID, locationID string) error
	// ShortIDTaken 检查短标识符是否已被占用（全局范围，铸号预检用）。
	ShortIDTaken(shortID string) (bool, error)
}

type boxRepository struct {
	db *gorm.DB
}

// NewBoxRepository 创建一个新的 BoxRepository 实例。
func NewBoxRepository(db *gorm.DB) BoxRepository {
	return &boxRepository{db: db}
}

func (r *boxRepository) WithTx(tx *gorm.DB) BoxRepository {
	return &boxRepository{db: tx}
}

// Create 在数据库中插入一个新的箱子记录。
func (r *boxRepository) Create(box *model.Box) error {
	return r.db.Create(box).Error
}

// FindByID 查找工作区内的一个箱子。
func (r *boxRepository) FindByID(workspaceID, id string) (*model.Box, error) {
	var box model.Box
	err := r.db.Where("workspace_id = ? AND id = ?", workspaceID, id).First(&box).Error
	if err != nil {
		return nil, err
	}
	return &box, nil
}

// FindAll 检索工作区内的所有箱子。
func (r *boxRepository) FindAll(workspaceID string) ([]model.Box, error) {
	var boxes []model.Box
	err := r.db.Where("workspace_id = ?", workspaceID).Find(&boxes).Error
	return boxes, err
}

// FindByLocation 查找直接放在指定位置下的箱子。
func (r *boxRepository) FindByLocation(workspaceID, locationID string) ([]model.Box, error) {
	var boxes []model.Box
	err := r.db.Where("workspace_id = ? AND location_id = ?", workspaceID, locationID).Find(&boxes).Error
	return boxes, err
}

// FindUnassigned 查找未分配池中的箱子。
func (r *boxRepository) FindUnassigned(workspaceID string) ([]model.Box, error) {
	var boxes []model.Box
	err := r.db.Where("workspace_id = ? AND location_id IS NULL", workspaceID).Find(&boxes).Error
	return boxes, err
}

// Update 更新数据库中一个已存在的箱子记录。
func (r *boxRepository) Update(box *model.Box) error {
	return r.db.Save(box).Error
}

// Delete 删除工作区内的一个箱子记录。
func (r *boxRepository) Delete(workspaceID, id string) error {
	return r.db.Where("workspace_id = ? AND id = ?", workspaceID, id).Delete(&model.Box{}).Error
}

// UnassignByLocation 把指定位置下的所有箱子的 location_id 置空。
func (r *boxRepository) UnassignByLocation(workspaceID, locationID string) error {
	return r.db.Model(&model.Box{}).
		Where("workspace_id = ? AND location_id = ?", workspaceID, locationID).
		Update("location_id", nil).Error
}

// ShortIDTaken 检查箱子短标识符是否已存在。
func (r *boxRepository) ShortIDTaken(shortID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Box{}).Where("short_id = ?", shortID).Count(&count).Error
	return count > 0, err
}
