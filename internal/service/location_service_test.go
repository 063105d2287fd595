package service

import (
	"context"
	"testing"

	"boxseek-go/internal/apperr"
	"boxseek-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWorkspace = "ws-1"

// mustCreateChain 创建一条从根开始的位置链，返回从浅到深的节点。
func mustCreateChain(t *testing.T, env *testEnv, workspaceID string, names ...string) []*model.Location {
	t.Helper()
	ctx := context.Background()
	var parentID *string
	locs := make([]*model.Location, 0, len(names))
	for _, name := range names {
		loc, err := env.locations.Create(ctx, workspaceID, parentID, name)
		require.NoError(t, err)
		parentID = &loc.ID
		locs = append(locs, loc)
	}
	return locs
}

func TestLocationCreateBuildsMaterializedPath(t *testing.T) {
	env := newTestEnv(t)
	chain := mustCreateChain(t, env, testWorkspace, "车库", "货架A", "第二层")

	root, shelf, tier := chain[0], chain[1], chain[2]
	assert.Equal(t, "/"+root.ID, root.Path)
	assert.Equal(t, root.Path+"/"+shelf.ID, shelf.Path)
	assert.Equal(t, shelf.Path+"/"+tier.ID, tier.Path)
	assert.Equal(t, 3, tier.Depth())
}

func TestLocationCreateRejectsDepthBeyondLimit(t *testing.T) {
	env := newTestEnv(t)
	chain := mustCreateChain(t, env, testWorkspace, "一", "二", "三", "四", "五")
	deepest := chain[len(chain)-1]
	require.Equal(t, model.MaxLocationDepth, deepest.Depth())

	_, err := env.locations.Create(context.Background(), testWorkspace, &deepest.ID, "六")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDepthExceeded))
}

func TestLocationCreateRejectsBlankName(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.locations.Create(context.Background(), testWorkspace, nil, "   ")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
}

func TestLocationCreateRejectsCrossWorkspaceParent(t *testing.T) {
	env := newTestEnv(t)
	chain := mustCreateChain(t, env, "ws-other", "别人的车库")

	_, err := env.locations.Create(context.Background(), testWorkspace, &chain[0].ID, "货架")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindWorkspaceMismatch))
}

func TestLocationMoveRejectsCycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	chain := mustCreateChain(t, env, testWorkspace, "车库", "货架A", "第二层")
	root, tier := chain[0], chain[2]

	// 移到自己之下
	_, err := env.locations.Move(ctx, testWorkspace, root.ID, &root.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindCycleDetected))

	// 移到自己的后代之下
	_, err = env.locations.Move(ctx, testWorkspace, root.ID, &tier.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindCycleDetected))
}

func TestLocationMoveRewritesSubtreePaths(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	chain := mustCreateChain(t, env, testWorkspace, "车库", "货架A", "第二层")
	root, shelf, tier := chain[0], chain[1], chain[2]

	attic, err := env.locations.Create(ctx, testWorkspace, nil, "阁楼")
	require.NoError(t, err)

	moved, err := env.locations.Move(ctx, testWorkspace, shelf.ID, &attic.ID)
	require.NoError(t, err)
	assert.Equal(t, attic.Path+"/"+shelf.ID, moved.Path)

	// 后代路径跟着整体重写
	got, err := env.locations.Get(ctx, testWorkspace, tier.ID)
	require.NoError(t, err)
	assert.Equal(t, moved.Path+"/"+tier.ID, got.Path)

	// 原来的父节点不再包含这棵子树
	gotRoot, err := env.locations.Get(ctx, testWorkspace, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "/"+root.ID, gotRoot.Path)
}

func TestLocationMoveRewritesSoftDeletedDescendantPaths(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	chain := mustCreateChain(t, env, testWorkspace, "车库", "货架A", "第二层")
	shelf, tier := chain[1], chain[2]

	require.NoError(t, env.locations.SoftDelete(ctx, testWorkspace, tier.ID))

	attic, err := env.locations.Create(ctx, testWorkspace, nil, "阁楼")
	require.NoError(t, err)

	moved, err := env.locations.Move(ctx, testWorkspace, shelf.ID, &attic.ID)
	require.NoError(t, err)

	// 软删除的后代路径也跟着重写，路径和父链保持一致
	got, err := env.locations.Get(ctx, testWorkspace, tier.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Equal(t, moved.Path+"/"+tier.ID, got.Path)
}

func TestLocationMoveRejectsWhenSubtreeWouldExceedDepth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	// 三层子树：A/B/C
	chain := mustCreateChain(t, env, testWorkspace, "A", "B", "C")
	// 三层目标链：X/Y/Z
	target := mustCreateChain(t, env, testWorkspace, "X", "Y", "Z")

	// 把 A 挂到 Z 下会让 C 到达第 6 层
	_, err := env.locations.Move(ctx, testWorkspace, chain[0].ID, &target[2].ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDepthExceeded))

	// 校验失败后原路径不受影响
	got, err := env.locations.Get(ctx, testWorkspace, chain[2].ID)
	require.NoError(t, err)
	assert.Equal(t, chain[2].Path, got.Path)
}

func TestLocationMoveToRoot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	chain := mustCreateChain(t, env, testWorkspace, "车库", "货架A")
	shelf := chain[1]

	moved, err := env.locations.Move(ctx, testWorkspace, shelf.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, "/"+shelf.ID, moved.Path)
}

func TestLocationSoftDeleteUnassignsBoxes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	chain := mustCreateChain(t, env, testWorkspace, "车库", "货架A")
	shelf := chain[1]

	box, err := env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "冬装", LocationID: &shelf.ID})
	require.NoError(t, err)

	require.NoError(t, env.locations.SoftDelete(ctx, testWorkspace, shelf.ID))

	// 位置仍可读取，带 deleted 标记
	got, err := env.locations.Get(ctx, testWorkspace, shelf.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)

	// 箱子回到未分配池
	gotBox, err := env.boxes.Get(ctx, testWorkspace, box.ID)
	require.NoError(t, err)
	assert.Nil(t, gotBox.LocationID)

	// 软删除的位置不能再作为父节点
	_, err = env.locations.Create(ctx, testWorkspace, &shelf.ID, "第二层")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestLocationBreadcrumbOrderedFromRoot(t *testing.T) {
	env := newTestEnv(t)
	chain := mustCreateChain(t, env, testWorkspace, "车库", "货架A", "第二层")

	entries, err := env.locations.Breadcrumb(context.Background(), testWorkspace, chain[2].ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "车库", entries[0].Name)
	assert.Equal(t, "货架A", entries[1].Name)
	assert.Equal(t, "第二层", entries[2].Name)
}

func TestLocationTreeExcludesDeletedAndOtherWorkspaces(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	chain := mustCreateChain(t, env, testWorkspace, "车库", "货架A")
	mustCreateChain(t, env, "ws-other", "别人的车库")

	require.NoError(t, env.locations.SoftDelete(ctx, testWorkspace, chain[1].ID))

	tree, err := env.locations.GetTree(ctx, testWorkspace)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, chain[0].ID, tree[0].ID)
	assert.Empty(t, tree[0].Children)
}

func TestLocationRename(t *testing.T) {
	env := newTestEnv(t)
	chain := mustCreateChain(t, env, testWorkspace, "车库")

	loc, err := env.locations.Rename(context.Background(), testWorkspace, chain[0].ID, "地下室")
	require.NoError(t, err)
	assert.Equal(t, "地下室", loc.Name)
	assert.Equal(t, chain[0].Path, loc.Path)
}

func TestLocationGetHidesOtherWorkspace(t *testing.T) {
	env := newTestEnv(t)
	chain := mustCreateChain(t, env, "ws-other", "别人的车库")

	_, err := env.locations.Get(context.Background(), testWorkspace, chain[0].ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
