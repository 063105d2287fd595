package service

import (
	"context"
	"errors"
	"strings"

	"boxseek-go/internal/apperr"
	"boxseek-go/internal/model"
	"boxseek-go/internal/repository"
	"boxseek-go/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationService 接口定义了位置树相关的业务操作。
type LocationService interface {
	Create(ctx context.Context, workspaceID string, parentID *string, name string) (*model.Location, error)
	Get(ctx context.Context, workspaceID, id string) (*model.Location, error)
	Rename(ctx context.Context, workspaceID, id, newName string) (*model.Location, error)
	Move(ctx context.Context, workspaceID, id string, newParentID *string) (*model.Location, error)
	SoftDelete(ctx context.Context, workspaceID, id string) error
	Breadcrumb(ctx context.Context, workspaceID, id string) ([]model.BreadcrumbEntry, error)
	GetTree(ctx context.Context, workspaceID string) ([]*model.LocationNode, error)
}

type locationService struct {
	db           *gorm.DB
	locationRepo repository.LocationRepository
	boxRepo      repository.BoxRepository
}

// NewLocationService 创建一个新的 LocationService 实例。
func NewLocationService(db *gorm.DB, locationRepo repository.LocationRepository, boxRepo repository.BoxRepository) LocationService {
	return &locationService{
		db:           db,
		locationRepo: locationRepo,
		boxRepo:      boxRepo,
	}
}

// resolveActiveParent 加载并校验一个可作为父节点的位置：
// 必须存在、属于同一工作区、未被软删除。
func (s *locationService) resolveActiveParent(workspaceID, parentID string) (*model.Location, error) {
	parent, err := s.locationRepo.FindByID(parentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("location", parentID)
	}
	if err != nil {
		return nil, apperr.Internal("location.resolveParent", err)
	}
	if parent.WorkspaceID != workspaceID {
		return nil, apperr.WorkspaceMismatch("location", parentID)
	}
	if parent.Deleted {
		return nil, apperr.NotFound("location", parentID)
	}
	return parent, nil
}

// Create 在指定父节点下创建一个新位置，根节点传 parentID = nil。
func (s *locationService) Create(ctx context.Context, workspaceID string, parentID *string, name string) (*model.Location, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.InvalidInput("位置名称不能为空")
	}

	var parentPath string
	depth := 1
	if parentID != nil {
		parent, err := s.resolveActiveParent(workspaceID, *parentID)
		if err != nil {
			return nil, err
		}
		parentPath = parent.Path
		depth = parent.Depth() + 1
	}
	if depth > model.MaxLocationDepth {
		return nil, apperr.DepthExceeded("", depth)
	}

	loc := &model.Location{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		ParentID:    parentID,
		Name:        strings.TrimSpace(name),
	}
	loc.Path = parentPath + "/" + loc.ID

	if err := s.locationRepo.Create(loc); err != nil {
		log.Errorw("创建位置失败", "workspaceId", workspaceID, "locationId", loc.ID, "op", "location.create", "error", err)
		return nil, apperr.Internal("location.create", err)
	}
	return loc, nil
}

// Get 获取工作区内的一个位置，软删除的行也能取到（deleted 标记可见）。
func (s *locationService) Get(ctx context.Context, workspaceID, id string) (*model.Location, error) {
	loc, err := s.locationRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("location", id)
	}
	if err != nil {
		return nil, apperr.Internal("location.get", err)
	}
	if loc.WorkspaceID != workspaceID {
		return nil, apperr.NotFound("location", id)
	}
	return loc, nil
}

// Rename 只修改名称，不触碰物化路径。
func (s *locationService) Rename(ctx context.Context, workspaceID, id, newName string) (*model.Location, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, apperr.InvalidInput("位置名称不能为空")
	}

	loc, err := s.locationRepo.FindActive(workspaceID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("location", id)
	}
	if err != nil {
		return nil, apperr.Internal("location.rename", err)
	}

	loc.Name = strings.TrimSpace(newName)
	if err := s.locationRepo.Update(loc); err != nil {
		log.Errorw("重命名位置失败", "workspaceId", workspaceID, "locationId", id, "op", "location.rename", "error", err)
		return nil, apperr.Internal("location.rename", err)
	}
	return loc, nil
}

// Move 把位置移动到新的父节点下（newParentID = nil 表示移到根层）。
// 所有校验在任何写入之前完成（fail closed）：先拒绝成环，再按
// 子树的最大相对深度校验新位置的深度上限，最后在一个事务里
// 重写本节点和所有后代的物化路径，要么全部可见要么全不可见。
func (s *locationService) Move(ctx context.Context, workspaceID, id string, newParentID *string) (*model.Location, error) {
	loc, err := s.locationRepo.FindActive(workspaceID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("location", id)
	}
	if err != nil {
		return nil, apperr.Internal("location.move", err)
	}

	var newParentPath string
	newDepth := 1
	if newParentID != nil {
		if *newParentID == loc.ID {
			return nil, apperr.CycleDetected(id)
		}
		parent, err := s.resolveActiveParent(workspaceID, *newParentID)
		if err != nil {
			return nil, err
		}
		// 新父节点的路径里出现本节点，说明要移到自己的后代之下
		if strings.HasPrefix(parent.Path, loc.Path+"/") {
			return nil, apperr.CycleDetected(id)
		}
		newParentPath = parent.Path
		newDepth = parent.Depth() + 1
	}

	descendants, err := s.locationRepo.FindSubtree(workspaceID, loc.Path+"/")
	if err != nil {
		return nil, apperr.Internal("location.move", err)
	}

	// 子树里最深节点相对本节点的深度差
	maxRel := 0
	for i := range descendants {
		if rel := descendants[i].Depth() - loc.Depth(); rel > maxRel {
			maxRel = rel
		}
	}
	if newDepth+maxRel > model.MaxLocationDepth {
		return nil, apperr.DepthExceeded(id, newDepth+maxRel)
	}

	oldPath := loc.Path
	newPath := newParentPath + "/" + loc.ID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.locationRepo.WithTx(tx)

		loc.ParentID = newParentID
		loc.Path = newPath
		if err := repo.Update(loc); err != nil {
			return err
		}

		// 子树路径前缀整体重写
		for i := range descendants {
			d := &descendants[i]
			d.Path = newPath + strings.TrimPrefix(d.Path, oldPath)
			if err := repo.Update(d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Errorw("移动位置失败", "workspaceId", workspaceID, "locationId", id, "op", "location.move", "error", err)
		return nil, apperr.Internal("location.move", err)
	}
	return loc, nil
}

// SoftDelete 软删除一个位置：标记 deleted 并把直接挂在它下面的箱子
// 移入未分配池，两者在同一个事务里完成。后代位置不受影响——它们是
// 独立的行，调用方想删整棵子树就逐个删，删除顺序无关紧要。
func (s *locationService) SoftDelete(ctx context.Context, workspaceID, id string) error {
	loc, err := s.locationRepo.FindActive(workspaceID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("location", id)
	}
	if err != nil {
		return apperr.Internal("location.softDelete", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loc.Deleted = true
		if err := s.locationRepo.WithTx(tx).Update(loc); err != nil {
			return err
		}
		return s.boxRepo.WithTx(tx).UnassignByLocation(workspaceID, id)
	})
	if err != nil {
		log.Errorw("软删除位置失败", "workspaceId", workspaceID, "locationId", id, "op", "location.softDelete", "error", err)
		return apperr.Internal("location.softDelete", err)
	}
	return nil
}

// Breadcrumb 根据物化路径生成面包屑，从根开始有序排列。只用于展示。
func (s *locationService) Breadcrumb(ctx context.Context, workspaceID, id string) ([]model.BreadcrumbEntry, error) {
	loc, err := s.locationRepo.FindActive(workspaceID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("location", id)
	}
	if err != nil {
		return nil, apperr.Internal("location.breadcrumb", err)
	}

	ids := model.PathIDs(loc.Path)
	ancestors, err := s.locationRepo.FindBatchByIDs(workspaceID, ids)
	if err != nil {
		return nil, apperr.Internal("location.breadcrumb", err)
	}

	names := make(map[string]string, len(ancestors))
	for _, a := range ancestors {
		names[a.ID] = a.Name
	}

	entries := make([]model.BreadcrumbEntry, 0, len(ids))
	for _, ancestorID := range ids {
		entries = append(entries, model.BreadcrumbEntry{ID: ancestorID, Name: names[ancestorID]})
	}
	return entries, nil
}

// GetTree retrieves all active locations and organizes them into a tree structure.
func (s *locationService) GetTree(ctx context.Context, workspaceID string) ([]*model.LocationNode, error) {
	locs, err := s.locationRepo.FindAllActive(workspaceID)
	if err != nil {
		return nil, apperr.Internal("location.tree", err)
	}

	nodes := make(map[string]*model.LocationNode)
	var tree []*model.LocationNode

	for _, loc := range locs {
		nodes[loc.ID] = &model.LocationNode{
			ID:       loc.ID,
			Name:     loc.Name,
			ParentID: loc.ParentID,
			Children: []*model.LocationNode{},
		}
	}

	for _, node := range nodes {
		if node.ParentID != nil && *node.ParentID != "" {
			if parent, ok := nodes[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		tree = append(tree, node)
	}
	return tree, nil
}
