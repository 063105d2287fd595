package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"boxseek-go/internal/apperr"
	"boxseek-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxCreateMintsShortID(t *testing.T) {
	env := newTestEnv(t)
	box, err := env.boxes.Create(context.Background(), testWorkspace, CreateBoxInput{
		Name:        "冬装",
		Description: "羽绒服和毛衣",
		Tags:        []string{"衣物", "冬季"},
	})
	require.NoError(t, err)
	assert.Len(t, box.ShortID, 10)
	assert.Equal(t, []string{"衣物", "冬季"}, box.TagList())
	assert.Contains(t, box.SearchText, "冬装")
	assert.Nil(t, box.LocationID)
	assert.Nil(t, box.CodeID)
}

func TestBoxCreateWithCodeBindsBothSides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, 1)
	require.NoError(t, err)

	box, err := env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "冬装", CodeID: &codes[0].ID})
	require.NoError(t, err)
	require.NotNil(t, box.CodeID)
	assert.Equal(t, codes[0].ID, *box.CodeID)

	code, err := env.qrRepo.FindByID(codes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.QrStatusAssigned, code.Status)
	require.NotNil(t, code.BoxID)
	assert.Equal(t, box.ID, *code.BoxID)
}

func TestBoxCreateRollsBackWhenBindFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, 1)
	require.NoError(t, err)

	// 先把码绑到另一个箱子上
	_, err = env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "先来的", CodeID: &codes[0].ID})
	require.NoError(t, err)

	_, err = env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "后来的", CodeID: &codes[0].ID})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	// 绑定失败时整个创建回滚，不留下半成品箱子
	boxes, err := env.boxes.List(ctx, testWorkspace, "", false)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, "先来的", boxes[0].Name)
}

func TestBoxCreateRejectsCrossWorkspaceLocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loc, err := env.locations.Create(ctx, "ws-other", nil, "别人的车库")
	require.NoError(t, err)

	_, err = env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "冬装", LocationID: &loc.ID})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindWorkspaceMismatch))
}

func TestBoxUpdatePatchSemantics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loc, err := env.locations.Create(ctx, testWorkspace, nil, "车库")
	require.NoError(t, err)

	box, err := env.boxes.Create(ctx, testWorkspace, CreateBoxInput{
		Name:        "冬装",
		Description: "羽绒服",
		LocationID:  &loc.ID,
	})
	require.NoError(t, err)

	// 只改名称，其余字段不动
	newName := "夏装"
	updated, err := env.boxes.Update(ctx, testWorkspace, box.ID, UpdateBoxInput{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "夏装", updated.Name)
	assert.Equal(t, "羽绒服", updated.Description)
	require.NotNil(t, updated.LocationID)
	assert.Equal(t, loc.ID, *updated.LocationID)

	// 空字符串解除位置关联
	empty := ""
	updated, err = env.boxes.Update(ctx, testWorkspace, box.ID, UpdateBoxInput{LocationID: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.LocationID)
}

func TestBoxUpdateRebindSwapsCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, 2)
	require.NoError(t, err)

	box, err := env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "冬装", CodeID: &codes[0].ID})
	require.NoError(t, err)

	updated, err := env.boxes.Update(ctx, testWorkspace, box.ID, UpdateBoxInput{CodeID: &codes[1].ID})
	require.NoError(t, err)
	require.NotNil(t, updated.CodeID)
	assert.Equal(t, codes[1].ID, *updated.CodeID)

	// 旧码回到 GENERATED 并解除箱子引用
	old, err := env.qrRepo.FindByID(codes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.QrStatusGenerated, old.Status)
	assert.Nil(t, old.BoxID)

	// 新码指向箱子
	fresh, err := env.qrRepo.FindByID(codes[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.QrStatusAssigned, fresh.Status)
	require.NotNil(t, fresh.BoxID)
	assert.Equal(t, box.ID, *fresh.BoxID)
}

func TestBoxUpdateUnbindReleasesCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, 1)
	require.NoError(t, err)

	box, err := env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "冬装", CodeID: &codes[0].ID})
	require.NoError(t, err)

	empty := ""
	updated, err := env.boxes.Update(ctx, testWorkspace, box.ID, UpdateBoxInput{CodeID: &empty})
	require.NoError(t, err)
	assert.Nil(t, updated.CodeID)

	code, err := env.qrRepo.FindByID(codes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.QrStatusGenerated, code.Status)
	assert.Nil(t, code.BoxID)
}

func TestBoxDeleteReleasesBoundCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, 1)
	require.NoError(t, err)

	box, err := env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "冬装", CodeID: &codes[0].ID})
	require.NoError(t, err)

	require.NoError(t, env.boxes.Delete(ctx, testWorkspace, box.ID))

	_, err = env.boxes.Get(ctx, testWorkspace, box.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// 释放的码可以再次绑定
	code, err := env.qrRepo.FindByID(codes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.QrStatusGenerated, code.Status)
	assert.Nil(t, code.BoxID)
}

func TestBoxListFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loc, err := env.locations.Create(ctx, testWorkspace, nil, "车库")
	require.NoError(t, err)

	_, err = env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "在车库", LocationID: &loc.ID})
	require.NoError(t, err)
	_, err = env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "未分配"})
	require.NoError(t, err)

	inLoc, err := env.boxes.List(ctx, testWorkspace, loc.ID, false)
	require.NoError(t, err)
	require.Len(t, inLoc, 1)
	assert.Equal(t, "在车库", inLoc[0].Name)

	pool, err := env.boxes.List(ctx, testWorkspace, "", true)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "未分配", pool[0].Name)

	all, err := env.boxes.List(ctx, testWorkspace, "", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBoxCreateConcurrentProducesDistinctShortIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	shortIDs := make(map[string]bool, workers)
	errs := make([]error, 0)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			box, err := env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: fmt.Sprintf("箱子-%d", n)})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			shortIDs[box.ShortID] = true
		}(i)
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, shortIDs, workers)
}

func TestGenerateBatchConcurrentProducesDistinctShortIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const workers = 4
	const perBatch = 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	shortIDs := make(map[string]bool, workers*perBatch)
	errs := make([]error, 0)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, perBatch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			for _, c := range codes {
				shortIDs[c.ShortID] = true
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, shortIDs, workers*perBatch)
}

func TestBoxGetHidesOtherWorkspace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	box, err := env.boxes.Create(ctx, "ws-other", CreateBoxInput{Name: "别人的箱子"})
	require.NoError(t, err)

	_, err = env.boxes.Get(ctx, testWorkspace, box.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
