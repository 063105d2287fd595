package service

import (
	"context"
	"testing"

	"boxseek-go/internal/model"
	"boxseek-go/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB 创建一个内存数据库并迁移全部表结构。
// TranslateError 和生产配置保持一致，铸号器的碰撞重试依赖它。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	// 内存库是按连接隔离的，连接池必须收敛到单连接，
	// 并发调用在池上排队串行执行
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Location{}, &model.Box{}, &model.QrCode{}))
	return db
}

// memoryScanCache 是测试用的内存版 ScanCache。
type memoryScanCache struct {
	entries map[string]*repository.ScanResolution
}

func newMemoryScanCache() *memoryScanCache {
	return &memoryScanCache{entries: map[string]*repository.ScanResolution{}}
}

func (c *memoryScanCache) Get(ctx context.Context, shortID string) (*repository.ScanResolution, error) {
	return c.entries[shortID], nil
}

func (c *memoryScanCache) Set(ctx context.Context, shortID string, res *repository.ScanResolution) error {
	c.entries[shortID] = res
	return nil
}

func (c *memoryScanCache) Invalidate(ctx context.Context, shortID string) error {
	delete(c.entries, shortID)
	return nil
}

type testEnv struct {
	db           *gorm.DB
	locationRepo repository.LocationRepository
	boxRepo      repository.BoxRepository
	qrRepo       repository.QrCodeRepository
	minter       Minter
	locations    LocationService
	qrCodes      QrCodeService
	boxes        BoxService
}

// newTestEnv 组装一套不带外部依赖的服务：没有缓存、索引、
// 对象存储和事件发布，这些协作方都允许为 nil。
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	locationRepo := repository.NewLocationRepository(db)
	boxRepo := repository.NewBoxRepository(db)
	qrRepo := repository.NewQrCodeRepository(db)
	minter := NewMinter(boxRepo, qrRepo)
	qrCodes := NewQrCodeService(db, qrRepo, boxRepo, minter, nil, nil)
	return &testEnv{
		db:           db,
		locationRepo: locationRepo,
		boxRepo:      boxRepo,
		qrRepo:       qrRepo,
		minter:       minter,
		locations:    NewLocationService(db, locationRepo, boxRepo),
		qrCodes:      qrCodes,
		boxes:        NewBoxService(db, boxRepo, locationRepo, qrCodes, minter, nil, nil, nil, nil),
	}
}
