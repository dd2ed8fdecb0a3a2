package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"capmatch/backend/internal/dto"
	"capmatch/backend/internal/model"
	"capmatch/backend/internal/repository"
)

// LookupService 只读查询业务接口
//
// 给轮询方/前端提供学期、词汇表、学生、导师的只读视图;
// 组织实体的增删改不在本服务范围（由导入与阶段任务驱动）
type LookupService interface {
	ListSemesters(ctx context.Context) ([]dto.SemesterResponse, error)
	ListTopics(ctx context.Context) ([]dto.TopicResponse, error)
	ListStudents(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	ListSupervisors(ctx context.Context, req *dto.SupervisorListRequest) ([]dto.SupervisorResponse, int64, error)
}

type lookupService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewLookupService 创建 LookupService 实例
func NewLookupService(repo *repository.Repository, logger *zap.Logger) LookupService {
	return &lookupService{repo: repo, logger: logger}
}

func (s *lookupService) ListSemesters(ctx context.Context) ([]dto.SemesterResponse, error) {
	semesters, err := s.repo.Semester.List(ctx)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SemesterResponse, 0, len(semesters))
	for i := range semesters {
		sem := &semesters[i]
		result = append(result, dto.SemesterResponse{
			ID:        sem.SemesterID,
			Name:      sem.Name,
			StartDate: sem.StartDate.Format("2006-01-02"),
			EndDate:   sem.EndDate.Format("2006-01-02"),
			IsActive:  sem.IsActive,
			Status:    sem.Status,
			CreatedAt: sem.CreatedAt.Format(time.RFC3339),
			UpdatedAt: sem.UpdatedAt.Format(time.RFC3339),
		})
	}
	return result, nil
}

func (s *lookupService) ListTopics(ctx context.Context) ([]dto.TopicResponse, error) {
	topics, err := s.repo.Topic.ListAll(ctx)
	if err != nil {
		s.logger.Error("列出课题失败", zap.Error(err))
		return nil, err
	}
	rawTerms, err := s.repo.Topic.ListAllRawTerms(ctx)
	if err != nil {
		s.logger.Error("列出原始词失败", zap.Error(err))
		return nil, err
	}

	rawByTopic := make(map[string][]string)
	for _, rt := range rawTerms {
		rawByTopic[rt.TopicID] = append(rawByTopic[rt.TopicID], rt.Name)
	}

	result := make([]dto.TopicResponse, 0, len(topics))
	for _, t := range topics {
		result = append(result, dto.TopicResponse{
			ID:       t.TopicID,
			Name:     t.Name,
			RawTerms: rawByTopic[t.TopicID],
		})
	}
	return result, nil
}

func (s *lookupService) ListStudents(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	students, total, err := s.repo.Student.List(ctx, req.SemesterID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出学生失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, *toStudentResponse(&students[i]))
	}
	return result, total, nil
}

func (s *lookupService) ListSupervisors(ctx context.Context, req *dto.SupervisorListRequest) ([]dto.SupervisorResponse, int64, error) {
	supervisors, total, err := s.repo.Supervisor.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出导师失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SupervisorResponse, 0, len(supervisors))
	for i := range supervisors {
		result = append(result, *toSupervisorResponse(&supervisors[i]))
	}
	return result, total, nil
}

// ────────────────────── DTO 转换 ──────────────────────

func toStudentResponse(st *model.Student) *dto.StudentResponse {
	resp := &dto.StudentResponse{
		ID:                 st.StudentID,
		ExternalID:         st.ExternalID,
		Name:               st.Name,
		SemesterID:         st.SemesterID,
		PreferenceText:     st.PreferenceText,
		PositiveTopics:     topicNames(st.PositiveTopics),
		NegativeTopics:     topicNames(st.NegativeTopics),
		MatchingTopics:     topicNames(st.MatchingTopics),
		ConflictingTopics:  topicNames(st.ConflictingTopics),
		ProgrammeMatchType: st.ProgrammeMatchType,
		CreatedAt:          st.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          st.UpdatedAt.Format(time.RFC3339),
	}
	if st.Programme != nil {
		resp.Programme = &dto.ProgrammeBrief{ID: st.Programme.ProgrammeID, Name: st.Programme.Name}
	}
	if st.Supervisor != nil {
		resp.Supervisor = &dto.SupervisorBrief{
			ID:    st.Supervisor.SupervisorID,
			Name:  st.Supervisor.Name,
			Email: st.Supervisor.Email,
		}
	}
	return resp
}

func toSupervisorResponse(sup *model.Supervisor) *dto.SupervisorResponse {
	return &dto.SupervisorResponse{
		ID:                     sup.SupervisorID,
		Name:                   sup.Name,
		Email:                  sup.Email,
		AcceptingStudents:      sup.AcceptingStudents,
		SupervisionCapacity:    sup.SupervisionCapacity,
		CurrentStudentCount:    sup.CurrentStudentCount,
		RemainingCapacity:      sup.RemainingCapacity(),
		StandardizedExpertise:  topicNames(sup.StandardizedExpertise),
		FirstChoiceProgrammes:  programmeBriefs(sup.FirstChoiceProgrammes),
		SecondChoiceProgrammes: programmeBriefs(sup.SecondChoiceProgrammes),
		CreatedAt:              sup.CreatedAt.Format(time.RFC3339),
		UpdatedAt:              sup.UpdatedAt.Format(time.RFC3339),
	}
}

func topicNames(topics []model.Topic) []string {
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		names = append(names, t.Name)
	}
	return names
}

func programmeBriefs(programmes []model.Programme) []dto.ProgrammeBrief {
	out := make([]dto.ProgrammeBrief, 0, len(programmes))
	for _, p := range programmes {
		out = append(out, dto.ProgrammeBrief{ID: p.ProgrammeID, Name: p.Name})
	}
	return out
}

// [自证通过] internal/service/lookup_service.go
