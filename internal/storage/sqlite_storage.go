package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raffle-ledger/internal/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type SqliteStorage struct {
	db *gorm.DB
}

func NewSqliteStorage(path string) (*SqliteStorage, error) {
	logger.Debug("initializing database...", zap.String("path", path))

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// one connection serializes writers and avoids SQLITE_BUSY
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&Account{},
		&RandomnessRequest{},
		&ProgramRegistration{},
		&Notification{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
	}

	logger.Debug("initializing database... done")
	return &SqliteStorage{
		db: db,
	}, nil
}

func (s *SqliteStorage) Transaction(ctx context.Context, fn func(tx Querier) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SqliteStorage{db: tx})
	})
}

func (s *SqliteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SqliteStorage) GetAccount(ctx context.Context, address string) (*Account, error) {
	var account Account
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &account, nil
}

func (s *SqliteStorage) CreateAccount(ctx context.Context, account *Account) error {
	return s.db.WithContext(ctx).Create(account).Error
}

func (s *SqliteStorage) UpdateAccount(ctx context.Context, account *Account) error {
	tx := s.db.WithContext(ctx).Model(&Account{}).Where("address = ?", account.Address).Updates(map[string]any{
		"balance":    account.Balance,
		"space":      account.Space,
		"data":       account.Data,
		"updated_at": time.Now(),
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SqliteStorage) DeleteAccount(ctx context.Context, address string) error {
	tx := s.db.WithContext(ctx).Where("address = ?", address).Delete(&Account{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SqliteStorage) CreateRandomnessRequest(ctx context.Context, request *RandomnessRequest) error {
	logger.Debug("creating randomness request...", zap.String("request", request.Request), zap.String("raffle", request.Raffle))

	err := s.db.WithContext(ctx).Create(request).Error
	if err != nil {
		return err
	}

	logger.Debug("creating randomness request... done")
	return nil
}

func (s *SqliteStorage) GetRandomnessRequest(ctx context.Context, request string) (*RandomnessRequest, error) {
	var randomnessRequest RandomnessRequest
	err := s.db.WithContext(ctx).Where("request = ?", request).First(&randomnessRequest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &randomnessRequest, nil
}

func (s *SqliteStorage) GetPendingRandomnessRequests(ctx context.Context, limit int) ([]*RandomnessRequest, error) {
	logger.Debug("getting pending randomness requests...")

	var requests []*RandomnessRequest
	err := s.db.WithContext(ctx).
		Where("fulfilled = ?", false).
		Order("slot, request").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}

	logger.Debug("getting pending randomness requests... done", zap.Int("count", len(requests)))
	return requests, nil
}

func (s *SqliteStorage) MarkRandomnessRequestFulfilled(ctx context.Context, request string) error {
	now := time.Now()
	tx := s.db.WithContext(ctx).Model(&RandomnessRequest{}).Where("request = ?", request).Updates(map[string]any{
		"fulfilled":    true,
		"fulfilled_at": &now,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *SqliteStorage) GetProgramRegistration(ctx context.Context, programID string) (*ProgramRegistration, error) {
	var registration ProgramRegistration
	err := s.db.WithContext(ctx).Where("program_id = ?", programID).First(&registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &registration, nil
}

func (s *SqliteStorage) UpdateProgramRegistration(ctx context.Context, registration *ProgramRegistration) error {
	logger.Debug("updating program registration...", zap.String("program", registration.ProgramID))

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "program_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"upgrade_authority", "updated_at"}),
	}).Create(registration).Error
	if err != nil {
		return err
	}

	logger.Debug("updating program registration... done")
	return nil
}

func (s *SqliteStorage) CreateNotification(ctx context.Context, notification *Notification) error {
	return s.db.WithContext(ctx).Create(notification).Error
}

func (s *SqliteStorage) GetNotificationsByRaffle(ctx context.Context, raffle string) ([]*Notification, error) {
	var notifications []*Notification
	err := s.db.WithContext(ctx).Where("raffle = ?", raffle).Order("id").Find(&notifications).Error
	if err != nil {
		return nil, err
	}

	return notifications, nil
}
