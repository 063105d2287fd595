// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"

	"boxseek-go/internal/apperr"
	"boxseek-go/internal/repository"
	"boxseek-go/pkg/log"
	"boxseek-go/pkg/shortid"

	"gorm.io/gorm"
)

// maxMintAttempts 是短标识符碰撞后的最大重抽次数。
// 应用层的预检只是优化，最终仲裁者是数据库的唯一索引：
// 插入被唯一索引拒绝同样按普通碰撞处理、继续重抽。
const maxMintAttempts = 5

// Minter 即标识符铸号器，为箱子和二维码生成不碰撞的短标识符。
// 候选值的唯一性检查和实体插入必须在同一个事务里执行，
// 所以插入动作由调用方以回调形式传入。
type Minter interface {
	// MintBoxShortID 为箱子铸一个短标识符并执行插入回调。
	MintBoxShortID(tx *gorm.DB, insert func(shortID string) error) (string, error)
	// MintCodeShortID 为二维码铸一个短标识符并执行插入回调。
	MintCodeShortID(tx *gorm.DB, insert func(shortID string) error) (string, error)
}

type minter struct {
	boxRepo repository.BoxRepository
	qrRepo  repository.QrCodeRepository
	// 随机抽取函数可注入，测试时用固定序列模拟碰撞。
	drawBox  func() (string, error)
	drawCode func() (string, error)
}

// NewMinter 创建一个新的 Minter 实例。
func NewMinter(boxRepo repository.BoxRepository, qrRepo repository.QrCodeRepository) Minter {
	return &minter{
		boxRepo:  boxRepo,
		qrRepo:   qrRepo,
		drawBox:  shortid.NewBoxID,
		drawCode: shortid.NewCodeID,
	}
}

// MintBoxShortID 为箱子铸号，唯一性范围是全局的（与唯一索引一致）。
func (m *minter) MintBoxShortID(tx *gorm.DB, insert func(shortID string) error) (string, error) {
	return m.mint(m.drawBox, m.boxRepo.WithTx(tx).ShortIDTaken, insert, "box")
}

// MintCodeShortID 为二维码铸号。
func (m *minter) MintCodeShortID(tx *gorm.DB, insert func(shortID string) error) (string, error) {
	return m.mint(m.drawCode, m.qrRepo.WithTx(tx).ShortIDTaken, insert, "qr_code")
}

// mint 执行"抽签-预检-插入"循环。预检发现占用或插入撞上唯一索引都算
// 一次碰撞，重抽下一个候选值；重试耗尽视为 500 级故障，大声记录日志。
func (m *minter) mint(draw func() (string, error), taken func(string) (bool, error), insert func(string) error, entity string) (string, error) {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		candidate, err := draw()
		if err != nil {
			return "", apperr.Internal("mint", err)
		}

		exists, err := taken(candidate)
		if err != nil {
			return "", apperr.Internal("mint", err)
		}
		if exists {
			log.Warnf("[Minter] 短标识符候选值已被占用，重抽: entity=%s, candidate=%s, attempt=%d", entity, candidate, attempt+1)
			continue
		}

		err = insert(candidate)
		if err == nil {
			return candidate, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发铸号撞上唯一索引，按普通碰撞重试
			log.Warnf("[Minter] 插入时发生唯一索引冲突，重抽: entity=%s, candidate=%s, attempt=%d", entity, candidate, attempt+1)
			continue
		}
		return "", err
	}

	log.Errorw("短标识符铸号重试耗尽", "entity", entity, "attempts", maxMintAttempts)
	return "", apperr.MintExhausted(entity)
}
