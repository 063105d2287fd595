package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"boxseek-go/internal/apperr"
	"boxseek-go/internal/model"
	"boxseek-go/internal/repository"
	"boxseek-go/pkg/log"
	"boxseek-go/pkg/tasks"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BoxIndexer 把箱子的搜索文档同步到搜索索引。
// 索引失败只记日志：数据库里的 search_text 才是权威数据。
type BoxIndexer interface {
	Index(ctx context.Context, doc model.BoxSearchDoc) error
	Remove(ctx context.Context, boxID string) error
}

// ObjectStore 是箱子照片的对象存储抽象。
type ObjectStore interface {
	Put(ctx context.Context, objectName, contentType string, reader io.Reader, size int64) error
	PresignedURL(objectName string, expiry time.Duration) (string, error)
}

// CreateBoxInput 是创建箱子的输入。LocationID 和 CodeID 都是可选的。
type CreateBoxInput struct {
	Name        string
	Description string
	Tags        []string
	LocationID  *string
	CodeID      *string
}

// UpdateBoxInput 是更新箱子的补丁，字段彼此独立：
// nil 表示不修改；LocationID/CodeID 传空字符串表示解除关联。
type UpdateBoxInput struct {
	Name        *string
	Description *string
	Tags        *[]string
	LocationID  *string
	CodeID      *string
}

// BoxService 接口定义了箱子相关的业务操作。
type BoxService interface {
	Create(ctx context.Context, workspaceID string, input CreateBoxInput) (*model.Box, error)
	Get(ctx context.Context, workspaceID, id string) (*model.Box, error)
	// List 列出箱子；locationID 非空时按位置过滤，unassigned 为 true 时
	// 只返回未分配池中的箱子。
	List(ctx context.Context, workspaceID string, locationID string, unassigned bool) ([]model.Box, error)
	Update(ctx context.Context, workspaceID, id string, patch UpdateBoxInput) (*model.Box, error)
	Delete(ctx context.Context, workspaceID, id string) error
	UploadPhoto(ctx context.Context, workspaceID, id, fileName, contentType string, reader io.Reader, size int64) (*model.Box, error)
	PhotoURL(ctx context.Context, workspaceID, id string) (string, error)
}

type boxService struct {
	db           *gorm.DB
	boxRepo      repository.BoxRepository
	locationRepo repository.LocationRepository
	qrService    QrCodeService
	minter       Minter
	indexer      BoxIndexer
	objectStore  ObjectStore
	scanCache    repository.ScanCache
	publisher    EventPublisher
}

// NewBoxService 创建一个新的 BoxService 实例。
// indexer、objectStore、scanCache 和 publisher 允许为 nil。
func NewBoxService(db *gorm.DB, boxRepo repository.BoxRepository, locationRepo repository.LocationRepository, qrService QrCodeService, minter Minter, indexer BoxIndexer, objectStore ObjectStore, scanCache repository.ScanCache, publisher EventPublisher) BoxService {
	return &boxService{
		db:           db,
		boxRepo:      boxRepo,
		locationRepo: locationRepo,
		qrService:    qrService,
		minter:       minter,
		indexer:      indexer,
		objectStore:  objectStore,
		scanCache:    scanCache,
		publisher:    publisher,
	}
}

// resolveLocation 校验箱子要引用的位置：必须存在、同工作区、未被软删除。
func (s *boxService) resolveLocation(workspaceID, locationID string) (*model.Location, error) {
	loc, err := s.locationRepo.FindByID(locationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("location", locationID)
	}
	if err != nil {
		return nil, apperr.Internal("box.resolveLocation", err)
	}
	if loc.WorkspaceID != workspaceID {
		return nil, apperr.WorkspaceMismatch("location", locationID)
	}
	if loc.Deleted {
		return nil, apperr.NotFound("location", locationID)
	}
	return loc, nil
}

// Create 创建一个箱子。铸号、插入和可选的二维码绑定在同一个事务里：
// 绑定失败时整个创建回滚，不存在部分成功。
func (s *boxService) Create(ctx context.Context, workspaceID string, input CreateBoxInput) (*model.Box, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperr.InvalidInput("箱子名称不能为空")
	}

	if input.LocationID != nil {
		if _, err := s.resolveLocation(workspaceID, *input.LocationID); err != nil {
			return nil, err
		}
	}

	box := &model.Box{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Tags:        model.JoinTags(input.Tags),
		LocationID:  input.LocationID,
	}
	box.SearchText = BuildSearchText(box.Name, box.Description, box.TagList())

	var boundCode *model.QrCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.boxRepo.WithTx(tx)
		_, err := s.minter.MintBoxShortID(tx, func(shortID string) error {
			box.ShortID = shortID
			return repo.Create(box)
		})
		if err != nil {
			return err
		}

		if input.CodeID != nil {
			code, err := s.qrService.Bind(tx, workspaceID, *input.CodeID, box)
			if err != nil {
				return err
			}
			boundCode = code
			return repo.Update(box)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapWriteErr("box.create", workspaceID, box.ID, err)
	}

	s.afterWrite(ctx, box, boundCode)
	s.publishLifecycle(ctx, box, "created")
	return box, nil
}

// Get 获取工作区内的一个箱子。
func (s *boxService) Get(ctx context.Context, workspaceID, id string) (*model.Box, error) {
	box, err := s.boxRepo.FindByID(workspaceID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("box", id)
	}
	if err != nil {
		return nil, apperr.Internal("box.get", err)
	}
	return box, nil
}

// List 列出工作区内的箱子。
func (s *boxService) List(ctx context.Context, workspaceID string, locationID string, unassigned bool) ([]model.Box, error) {
	var boxes []model.Box
	var err error
	switch {
	case unassigned:
		boxes, err = s.boxRepo.FindUnassigned(workspaceID)
	case locationID != "":
		boxes, err = s.boxRepo.FindByLocation(workspaceID, locationID)
	default:
		boxes, err = s.boxRepo.FindAll(workspaceID)
	}
	if err != nil {
		return nil, apperr.Internal("box.list", err)
	}
	return boxes, nil
}

// Update 按补丁更新箱子。位置重新校验、二维码换绑（先回收旧码再绑新码）
// 和搜索文档重算都在同一个事务里完成。
func (s *boxService) Update(ctx context.Context, workspaceID, id string, patch UpdateBoxInput) (*model.Box, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperr.InvalidInput("箱子名称不能为空")
	}
	if patch.LocationID != nil && *patch.LocationID != "" {
		if _, err := s.resolveLocation(workspaceID, *patch.LocationID); err != nil {
			return nil, err
		}
	}

	var box *model.Box
	var boundCode, releasedCode *model.QrCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.boxRepo.WithTx(tx)
		var err error
		box, err = repo.FindByID(workspaceID, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("box", id)
		}
		if err != nil {
			return err
		}

		if patch.Name != nil {
			box.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			box.Description = *patch.Description
		}
		if patch.Tags != nil {
			box.Tags = model.JoinTags(*patch.Tags)
		}
		if patch.LocationID != nil {
			if *patch.LocationID == "" {
				box.LocationID = nil
			} else {
				locationID := *patch.LocationID
				box.LocationID = &locationID
			}
		}

		if patch.CodeID != nil {
			switch {
			case *patch.CodeID == "":
				// 解除绑定
				releasedCode, err = s.qrService.Release(tx, workspaceID, box.ID)
				if err != nil {
					return err
				}
				box.CodeID = nil
			case box.CodeID == nil || *box.CodeID != *patch.CodeID:
				// 换绑：先回收旧码，再绑新码
				releasedCode, err = s.qrService.Release(tx, workspaceID, box.ID)
				if err != nil {
					return err
				}
				box.CodeID = nil
				boundCode, err = s.qrService.Bind(tx, workspaceID, *patch.CodeID, box)
				if err != nil {
					return err
				}
			}
		}

		box.SearchText = BuildSearchText(box.Name, box.Description, box.TagList())
		return repo.Update(box)
	})
	if err != nil {
		return nil, s.wrapWriteErr("box.update", workspaceID, id, err)
	}

	s.afterWrite(ctx, box, boundCode)
	if releasedCode != nil {
		s.invalidateScan(ctx, releasedCode.ShortID)
	}
	return box, nil
}

// Delete 销毁一个箱子：先回收绑定的二维码，再删除箱子行，两步在
// 同一个事务里。失败不会让二维码永久指向一个不存在的箱子。
func (s *boxService) Delete(ctx context.Context, workspaceID, id string) error {
	var box *model.Box
	var releasedCode *model.QrCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.boxRepo.WithTx(tx)
		var err error
		box, err = repo.FindByID(workspaceID, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("box", id)
		}
		if err != nil {
			return err
		}

		releasedCode, err = s.qrService.Release(tx, workspaceID, box.ID)
		if err != nil {
			return err
		}
		return repo.Delete(workspaceID, id)
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		log.Errorw("删除箱子失败", "workspaceId", workspaceID, "boxId", id, "op", "box.delete", "error", err)
		return apperr.Internal("box.delete", err)
	}

	if s.indexer != nil {
		if err := s.indexer.Remove(ctx, box.ID); err != nil {
			log.Errorw("从搜索索引删除箱子失败", "boxId", box.ID, "op", "box.delete", "error", err)
		}
	}
	if releasedCode != nil {
		s.invalidateScan(ctx, releasedCode.ShortID)
	}
	s.publishLifecycle(ctx, box, "deleted")
	return nil
}

// UploadPhoto 上传箱子照片到对象存储并记录对象 key。
func (s *boxService) UploadPhoto(ctx context.Context, workspaceID, id, fileName, contentType string, reader io.Reader, size int64) (*model.Box, error) {
	if s.objectStore == nil {
		return nil, apperr.InvalidInput("对象存储未启用")
	}
	box, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}

	objectName := "workspaces/" + workspaceID + "/boxes/" + box.ID + "/" + fileName
	if err := s.objectStore.Put(ctx, objectName, contentType, reader, size); err != nil {
		log.Errorw("上传箱子照片失败", "workspaceId", workspaceID, "boxId", id, "op", "box.uploadPhoto", "error", err)
		return nil, apperr.Internal("box.uploadPhoto", err)
	}

	box.PhotoKey = &objectName
	if err := s.boxRepo.Update(box); err != nil {
		log.Errorw("保存照片 key 失败", "workspaceId", workspaceID, "boxId", id, "op", "box.uploadPhoto", "error", err)
		return nil, apperr.Internal("box.uploadPhoto", err)
	}
	return box, nil
}

// PhotoURL 返回箱子照片的预签名下载地址。
func (s *boxService) PhotoURL(ctx context.Context, workspaceID, id string) (string, error) {
	if s.objectStore == nil {
		return "", apperr.InvalidInput("对象存储未启用")
	}
	box, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return "", err
	}
	if box.PhotoKey == nil {
		return "", apperr.NotFound("photo", id)
	}
	url, err := s.objectStore.PresignedURL(*box.PhotoKey, 15*time.Minute)
	if err != nil {
		return "", apperr.Internal("box.photoURL", err)
	}
	return url, nil
}

// wrapWriteErr 保留业务错误原样返回，底层错误包装为内部错误并记日志。
func (s *boxService) wrapWriteErr(op, workspaceID, boxID string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	log.Errorw("箱子写入失败", "workspaceId", workspaceID, "boxId", boxID, "op", op, "error", err)
	return apperr.Internal(op, err)
}

// afterWrite 在事务提交后同步搜索索引并失效相关扫码缓存。
func (s *boxService) afterWrite(ctx context.Context, box *model.Box, boundCode *model.QrCode) {
	if s.indexer != nil {
		doc := model.BoxSearchDoc{
			BoxID:       box.ID,
			WorkspaceID: box.WorkspaceID,
			ShortID:     box.ShortID,
			Name:        box.Name,
			Description: box.Description,
			Tags:        box.TagList(),
			SearchText:  box.SearchText,
		}
		if box.LocationID != nil {
			doc.LocationID = *box.LocationID
		}
		if err := s.indexer.Index(ctx, doc); err != nil {
			log.Errorw("同步搜索索引失败", "boxId", box.ID, "op", "box.index", "error", err)
		}
	}
	if boundCode != nil {
		s.invalidateScan(ctx, boundCode.ShortID)
	}
}

// publishLifecycle 发布箱子生命周期事件，失败只记日志。
func (s *boxService) publishLifecycle(ctx context.Context, box *model.Box, action string) {
	if s.publisher == nil {
		return
	}
	event := tasks.BoxLifecycleEvent{
		WorkspaceID: box.WorkspaceID,
		BoxID:       box.ID,
		ShortID:     box.ShortID,
		Action:      action,
	}
	if err := s.publisher.Publish(ctx, box.WorkspaceID, event); err != nil {
		log.Errorw("发布箱子生命周期事件失败", "boxId", box.ID, "action", action, "error", err)
	}
}

// invalidateScan 删除扫码缓存条目。
func (s *boxService) invalidateScan(ctx context.Context, shortID string) {
	if s.scanCache == nil {
		return
	}
	if err := s.scanCache.Invalidate(ctx, shortID); err != nil {
		log.Warnf("[BoxService] 失效扫码缓存失败: shortId=%s, err=%v", shortID, err)
	}
}
