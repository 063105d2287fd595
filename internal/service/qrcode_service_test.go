package service

import (
	"context"
	"strings"
	"testing"

	"boxseek-go/internal/apperr"
	"boxseek-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBatchValidatesCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, 0)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))

	_, err = env.qrCodes.GenerateBatch(ctx, testWorkspace, 101)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidInput))
}

func TestGenerateBatchProducesGeneratedCodes(t *testing.T) {
	env := newTestEnv(t)
	codes, err := env.qrCodes.GenerateBatch(context.Background(), testWorkspace, 5)
	require.NoError(t, err)
	require.Len(t, codes, 5)

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.Equal(t, model.QrStatusGenerated, code.Status)
		assert.Nil(t, code.BoxID)
		assert.True(t, strings.HasPrefix(code.ShortID, "QR-"))
		assert.Len(t, code.ShortID, 9)
		assert.False(t, seen[code.ShortID], "短标识符不应重复: %s", code.ShortID)
		seen[code.ShortID] = true
	}
}

func TestMarkPrintedTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, 1)
	require.NoError(t, err)
	code := codes[0]

	printed, err := env.qrCodes.MarkPrinted(ctx, testWorkspace, code.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QrStatusPrinted, printed.Status)

	// 重复标记是幂等的
	again, err := env.qrCodes.MarkPrinted(ctx, testWorkspace, code.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QrStatusPrinted, again.Status)
}

func TestMarkPrintedKeepsAssignedUnchanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, 1)
	require.NoError(t, err)

	_, err = env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "冬装", CodeID: &codes[0].ID})
	require.NoError(t, err)

	// 重印已绑定的码不改变其状态
	code, err := env.qrCodes.MarkPrinted(ctx, testWorkspace, codes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.QrStatusAssigned, code.Status)
}

func TestMarkPrintedHidesOtherWorkspace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, "ws-other", 1)
	require.NoError(t, err)

	_, err = env.qrCodes.MarkPrinted(ctx, testWorkspace, codes[0].ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindWorkspaceMismatch))
}

func TestListFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, 3)
	require.NoError(t, err)
	_, err = env.qrCodes.MarkPrinted(ctx, testWorkspace, codes[0].ID)
	require.NoError(t, err)

	printed, err := env.qrCodes.List(ctx, testWorkspace, model.QrStatusPrinted)
	require.NoError(t, err)
	require.Len(t, printed, 1)
	assert.Equal(t, codes[0].ID, printed[0].ID)

	all, err := env.qrCodes.List(ctx, testWorkspace, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestResolveUnassignedCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, 1)
	require.NoError(t, err)

	res, err := env.qrCodes.Resolve(ctx, testWorkspace, codes[0].ShortID)
	require.NoError(t, err)
	assert.Equal(t, codes[0].ID, res.CodeID)
	assert.Equal(t, model.QrStatusGenerated, res.Status)
	assert.Nil(t, res.Box)
}

func TestResolveAssignedCodeReturnsBox(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, testWorkspace, 1)
	require.NoError(t, err)

	box, err := env.boxes.Create(ctx, testWorkspace, CreateBoxInput{Name: "冬装", CodeID: &codes[0].ID})
	require.NoError(t, err)

	res, err := env.qrCodes.Resolve(ctx, testWorkspace, codes[0].ShortID)
	require.NoError(t, err)
	assert.Equal(t, model.QrStatusAssigned, res.Status)
	require.NotNil(t, res.Box)
	assert.Equal(t, box.ID, res.Box.ID)
}

func TestResolveHidesOtherWorkspaceCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	codes, err := env.qrCodes.GenerateBatch(ctx, "ws-other", 1)
	require.NoError(t, err)

	_, err = env.qrCodes.Resolve(ctx, testWorkspace, codes[0].ShortID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestResolveCacheHitChecksWorkspaceOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cache := newMemoryScanCache()
	qrCodes := NewQrCodeService(env.db, env.qrRepo, env.boxRepo, env.minter, cache, nil)

	codes, err := qrCodes.GenerateBatch(ctx, testWorkspace, 1)
	require.NoError(t, err)
	shortID := codes[0].ShortID

	// 归属工作区解析一次，未绑定的码会进缓存
	res, err := qrCodes.Resolve(ctx, testWorkspace, shortID)
	require.NoError(t, err)
	assert.Equal(t, codes[0].ID, res.CodeID)
	require.NotNil(t, cache.entries[shortID])

	// 其他工作区拿同一个短标识符扫码，命中缓存也按不存在处理
	_, err = qrCodes.Resolve(ctx, "ws-other", shortID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// 归属工作区不受影响
	res, err = qrCodes.Resolve(ctx, testWorkspace, shortID)
	require.NoError(t, err)
	assert.Equal(t, testWorkspace, res.WorkspaceID)
}

func TestResolveUnknownShortID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.qrCodes.Resolve(context.Background(), testWorkspace, "QR-ZZZZZZ")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
