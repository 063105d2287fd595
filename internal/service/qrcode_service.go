package service

import (
	"context"
	"errors"

	"boxseek-go/internal/apperr"
	"boxseek-go/internal/model"
	"boxseek-go/internal/repository"
	"boxseek-go/pkg/log"
	"boxseek-go/pkg/tasks"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 批量生成数量的上下限。
const (
	minBatchSize = 1
	maxBatchSize = 100
)

// EventPublisher 把领域事件发往消息队列，消费方（标签渲染等）在服务之外。
// 发布失败只记日志，不影响业务结果。
type EventPublisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
}

// QrCodeService 接口定义了二维码生命周期相关的业务操作。
// Bind 和 Release 接受外部事务：二维码和箱子的双向引用必须在
// 同一个工作单元里一起落库，任何一边单独提交都是不允许的。
type QrCodeService interface {
	GenerateBatch(ctx context.Context, workspaceID string, count int) ([]model.QrCode, error)
	MarkPrinted(ctx context.Context, workspaceID, codeID string) (*model.QrCode, error)
	List(ctx context.Context, workspaceID, status string) ([]model.QrCode, error)
	// Bind 把二维码绑定到箱子上，并把 box.CodeID 指回来（由调用方在同一
	// 事务里持久化箱子）。返回绑定的二维码，供调用方提交后失效缓存。
	Bind(tx *gorm.DB, workspaceID, codeID string, box *model.Box) (*model.QrCode, error)
	// Release 回收绑定到指定箱子的二维码（最多一个），没有则是安全的空操作。
	// 返回被回收的二维码，没有时返回 nil。
	Release(tx *gorm.DB, workspaceID, boxID string) (*model.QrCode, error)
	// Resolve 把扫到的短标识符解析为登记流程或已有箱子记录。
	Resolve(ctx context.Context, workspaceID, shortID string) (*repository.ScanResolution, error)
}

type qrCodeService struct {
	db        *gorm.DB
	qrRepo    repository.QrCodeRepository
	boxRepo   repository.BoxRepository
	minter    Minter
	scanCache repository.ScanCache
	publisher EventPublisher
}

// NewQrCodeService 创建一个新的 QrCodeService 实例。
// scanCache 和 publisher 允许为 nil（测试或降级运行时）。
func NewQrCodeService(db *gorm.DB, qrRepo repository.QrCodeRepository, boxRepo repository.BoxRepository, minter Minter, scanCache repository.ScanCache, publisher EventPublisher) QrCodeService {
	return &qrCodeService{
		db:        db,
		qrRepo:    qrRepo,
		boxRepo:   boxRepo,
		minter:    minter,
		scanCache: scanCache,
		publisher: publisher,
	}
}

// GenerateBatch 批量预生成二维码，每一个都在自己的事务里铸号并插入。
// 中途失败只留下已提交的码，不会产生半成品，也避免了大事务的锁竞争。
func (s *qrCodeService) GenerateBatch(ctx context.Context, workspaceID string, count int) ([]model.QrCode, error) {
	if count < minBatchSize || count > maxBatchSize {
		return nil, apperr.InvalidInput("批量生成数量必须在 1 到 100 之间")
	}

	codes := make([]model.QrCode, 0, count)
	for i := 0; i < count; i++ {
		var code model.QrCode
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.qrRepo.WithTx(tx)
			_, err := s.minter.MintCodeShortID(tx, func(shortID string) error {
				code = model.QrCode{
					ID:          uuid.NewString(),
					WorkspaceID: workspaceID,
					ShortID:     shortID,
					Status:      model.QrStatusGenerated,
				}
				return repo.Create(&code)
			})
			return err
		})
		if err != nil {
			log.Errorw("批量生成二维码中断", "workspaceId", workspaceID, "op", "qrcode.generateBatch", "generated", len(codes), "error", err)
			return nil, err
		}
		codes = append(codes, code)
	}

	if s.publisher != nil {
		shortIDs := make([]string, len(codes))
		for i, c := range codes {
			shortIDs[i] = c.ShortID
		}
		event := tasks.LabelBatchEvent{WorkspaceID: workspaceID, BatchSize: len(codes), ShortIDs: shortIDs}
		if err := s.publisher.Publish(ctx, workspaceID, event); err != nil {
			log.Errorw("发布标签批次事件失败", "workspaceId", workspaceID, "op", "qrcode.generateBatch", "error", err)
		}
	}

	return codes, nil
}

// loadWorkspaceCode 加载二维码并校验工作区归属。
func (s *qrCodeService) loadWorkspaceCode(repo repository.QrCodeRepository, workspaceID, codeID string) (*model.QrCode, error) {
	code, err := repo.FindByID(codeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("qr_code", codeID)
	}
	if err != nil {
		return nil, apperr.Internal("qrcode.load", err)
	}
	if code.WorkspaceID != workspaceID {
		return nil, apperr.WorkspaceMismatch("qr_code", codeID)
	}
	return code, nil
}

// MarkPrinted 把二维码标记为已打印。重复调用是幂等的；
// 已绑定的码保持不变直接返回——重印已绑定箱子的标签是前端的事，
// 不算状态违例。
func (s *qrCodeService) MarkPrinted(ctx context.Context, workspaceID, codeID string) (*model.QrCode, error) {
	code, err := s.loadWorkspaceCode(s.qrRepo, workspaceID, codeID)
	if err != nil {
		return nil, err
	}

	switch code.Status {
	case model.QrStatusAssigned, model.QrStatusPrinted:
		return code, nil
	}

	code.Status = model.QrStatusPrinted
	if err := s.qrRepo.Update(code); err != nil {
		log.Errorw("标记二维码已打印失败", "workspaceId", workspaceID, "codeId", codeID, "op", "qrcode.markPrinted", "error", err)
		return nil, apperr.Internal("qrcode.markPrinted", err)
	}
	s.invalidateScan(ctx, code.ShortID)
	return code, nil
}

// List 列出工作区内的二维码，status 为空时返回全部。
func (s *qrCodeService) List(ctx context.Context, workspaceID, status string) ([]model.QrCode, error) {
	var codes []model.QrCode
	var err error
	if status == "" {
		codes, err = s.qrRepo.FindAll(workspaceID)
	} else {
		codes, err = s.qrRepo.FindByStatus(workspaceID, status)
	}
	if err != nil {
		return nil, apperr.Internal("qrcode.list", err)
	}
	return codes, nil
}

// Bind 在调用方的事务里把二维码和箱子互相指向对方。
// 重复绑定同一个箱子是幂等成功；绑定到别的箱子则报冲突。
func (s *qrCodeService) Bind(tx *gorm.DB, workspaceID, codeID string, box *model.Box) (*model.QrCode, error) {
	repo := s.qrRepo.WithTx(tx)
	code, err := s.loadWorkspaceCode(repo, workspaceID, codeID)
	if err != nil {
		return nil, err
	}

	if code.Status == model.QrStatusAssigned {
		if code.BoxID != nil && *code.BoxID == box.ID {
			// 已经绑在这个箱子上，幂等成功
			box.CodeID = &code.ID
			return code, nil
		}
		return nil, apperr.Conflict("qr_code", codeID, "二维码已绑定到其他箱子")
	}

	code.Status = model.QrStatusAssigned
	code.BoxID = &box.ID
	if err := repo.Update(code); err != nil {
		return nil, apperr.Internal("qrcode.bind", err)
	}
	box.CodeID = &code.ID
	return code, nil
}

// Release 在调用方的事务里回收箱子绑定的二维码，状态回到 GENERATED。
func (s *qrCodeService) Release(tx *gorm.DB, workspaceID, boxID string) (*model.QrCode, error) {
	repo := s.qrRepo.WithTx(tx)
	code, err := repo.FindByBoxID(boxID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 箱子本来就没绑码，安全的空操作
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("qrcode.release", err)
	}

	code.Status = model.QrStatusGenerated
	code.BoxID = nil
	if err := repo.Update(code); err != nil {
		return nil, apperr.Internal("qrcode.release", err)
	}
	return code, nil
}

// Resolve 把扫到的短标识符解析为扫码结果。
// 未绑定的码走缓存（内容只有码本身的状态）；已绑定的码每次都查库，
// 避免箱子内容变更后返回过期数据。其他工作区的码一律按不存在处理。
func (s *qrCodeService) Resolve(ctx context.Context, workspaceID, shortID string) (*repository.ScanResolution, error) {
	if s.scanCache != nil {
		cached, err := s.scanCache.Get(ctx, shortID)
		if err != nil {
			log.Warnf("[QrCodeService] 读取扫码缓存失败: shortId=%s, err=%v", shortID, err)
		} else if cached != nil {
			// 缓存键不含工作区，命中后必须校验归属，
			// 和数据库路径一样不向其他工作区泄露码的存在
			if cached.WorkspaceID != workspaceID {
				return nil, apperr.NotFound("qr_code", shortID)
			}
			return cached, nil
		}
	}

	code, err := s.qrRepo.FindByShortID(shortID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("qr_code", shortID)
	}
	if err != nil {
		return nil, apperr.Internal("qrcode.resolve", err)
	}
	if code.WorkspaceID != workspaceID {
		// 不向其他工作区泄露码的存在
		return nil, apperr.NotFound("qr_code", shortID)
	}

	res := &repository.ScanResolution{
		WorkspaceID: code.WorkspaceID,
		CodeID:      code.ID,
		CodeShortID: code.ShortID,
		Status:      code.Status,
	}

	if code.Status == model.QrStatusAssigned && code.BoxID != nil {
		box, err := s.boxRepo.FindByID(workspaceID, *code.BoxID)
		if err != nil {
			log.Errorw("解析已绑定二维码时找不到箱子", "workspaceId", workspaceID, "codeId", code.ID, "boxId", *code.BoxID, "op", "qrcode.resolve", "error", err)
			return nil, apperr.Internal("qrcode.resolve", err)
		}
		res.Box = box
		return res, nil
	}

	if s.scanCache != nil {
		if err := s.scanCache.Set(ctx, shortID, res); err != nil {
			log.Warnf("[QrCodeService] 写入扫码缓存失败: shortId=%s, err=%v", shortID, err)
		}
	}
	return res, nil
}

// invalidateScan 删除扫码缓存条目，缓存不可用时只记日志。
func (s *qrCodeService) invalidateScan(ctx context.Context, shortID string) {
	if s.scanCache == nil {
		return
	}
	if err := s.scanCache.Invalidate(ctx, shortID); err != nil {
		log.Warnf("[QrCodeService] 失效扫码缓存失败: shortId=%s, err=%v", shortID, err)
	}
}
