package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db *gorm.DB

	Users      UserRepository
	Categories CategoryRepository
	Tags       TagRepository
	Posts      PostRepository
	Comments   CommentRepository
	Reports    ReportRepository
	Analytics  AnalyticsRepository
}

// NewStore creates a store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:         db,
		Users:      NewUserRepository(db),
		Categories: NewCategoryRepository(db),
		Tags:       NewTagRepository(db),
		Posts:      NewPostRepository(db),
		Comments:   NewCommentRepository(db),
		Reports:    NewReportRepository(db),
		Analytics:  NewAnalyticsRepository(db),
	}
}

// DB exposes the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a store bound to a single transaction. The
// transaction commits only if fn returns nil.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
	return Classify(err)
}

// Ping checks that the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return Classify(err)
	}
	return Classify(sqlDB.PingContext(ctx))
}
