package repository

import (
	"boxseek-go/internal/model"

	"gorm.io/gorm"
)

// QrCodeRepository 接口定义了二维码的数据操作方法。
type QrCodeRepository interface {
	// WithTx 返回一个绑定到指定事务的仓库实例。
	WithTx(tx *gorm.DB) QrCodeRepository
	Create(code *model.QrCode) error
	// FindByID 不带工作区过滤地查找二维码，用于区分"不存在"和"属于其他工作区"。
	FindByID(id string) (*model.QrCode, error)
	// FindByShortID 按短标识符查找二维码（扫码入口，全局唯一）。
	FindByShortID(shortID string) (*model.QrCode, error)
	// FindByBoxID 查找绑定到指定箱子的二维码，最多一个。
	FindByBoxID(boxID string) (*model.QrCode, error)
	FindByStatus(workspaceID, status string) ([]model.QrCode, error)
	FindAll(workspaceID string) ([]model.QrCode, error)
	Update(code *model.QrCode) error
	// ShortIDTaken 检查短标识符是否已被占用（全局范围，铸号预检用）。
	ShortIDTaken(shortID string) (bool, error)
}

type qrCodeRepository struct {
	db *gorm.DB
}

// NewQrCodeRepository 创建一个新的 QrCodeRepository 实例。
func NewQrCodeRepository(db *gorm.DB) QrCodeRepository {
	return &qrCodeRepository{db: db}
}

func (r *qrCodeRepository) WithTx(tx *gorm.DB) QrCodeRepository {
	return &qrCodeRepository{db: tx}
}

// Create 在数据库中插入一个新的二维码记录。
func (r *qrCodeRepository) Create(code *model.QrCode) error {
	return r.db.Create(code).Error
}

// FindByID 根据 ID 查找二维码，不做工作区过滤。
func (r *qrCodeRepository) FindByID(id string) (*model.QrCode, error) {
	var code model.QrCode
	err := r.db.Where("id = ?", id).First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// FindByShortID 根据短标识符查找二维码。
func (r *qrCodeRepository) FindByShortID(shortID string) (*model.QrCode, error) {
	var code model.QrCode
	err := r.db.Where("short_id = ?", shortID).First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// FindByBoxID 查找绑定到指定箱子的二维码。
func (r *qrCodeRepository) FindByBoxID(boxID string) (*model.QrCode, error) {
	var code model.QrCode
	err := r.db.Where("box_id = ?", boxID).First(&code).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// FindByStatus 检索工作区内指定状态的所有二维码。
func (r *qrCodeRepository) FindByStatus(workspaceID, status string) ([]model.QrCode, error) {
	var codes []model.QrCode
	err := r.db.Where("workspace_id = ? AND status = ?", workspaceID, status).Find(&codes).Error
	return codes, err
}

// FindAll 检索工作区内的所有二维码。
func (r *qrCodeRepository) FindAll(workspaceID string) ([]model.QrCode, error) {
	var codes []model.QrCode
	err := r.db.Where("workspace_id = ?", workspaceID).Find(&codes).Error
	return codes, err
}

// Update 更新数据库中一个已存在的二维码记录。
func (r *qrCodeRepository) Update(code *model.QrCode) error {
	return r.db.Save(code).Error
}

// ShortIDTaken 检查二维码短标识符是否已存在。
func (r *qrCodeRepository) ShortIDTaken(shortID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.QrCode{}).Where("short_id = ?", shortID).Count(&count).Error
	return count > 0, err
}
