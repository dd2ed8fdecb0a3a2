package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"capmatch/backend/config"
	"capmatch/backend/internal/categorizer"
	"capmatch/backend/internal/model"
	"capmatch/backend/internal/repository"
)

func labelTestConfig(batchSize, retryLimit int) *config.GeminiConfig {
	return &config.GeminiConfig{
		BatchSize:  batchSize,
		RetryLimit: retryLimit,
		// 测试中不等待
		RetryDelay:      0,
		InterBatchDelay: 0,
	}
}

func setupLabelTest(cat *fakeCategorizer, cfg *config.GeminiConfig) (LabelService, *repository.Repository) {
	repo := newMockRepository()
	_ = repo.Semester.Create(context.Background(), &model.Semester{SemesterID: "sem-1", Name: "2026"})
	svc := NewLabelService(cfg, repo, cat, zap.NewNop())
	return svc, repo
}

func addTopics(repo *repository.Repository, names ...string) {
	for _, n := range names {
		_, _ = repo.Topic.GetOrCreateByName(context.Background(), n)
	}
}

func addStudent(repo *repository.Repository, id, externalID, preferenceText string) *model.Student {
	st := &model.Student{
		StudentID:      id,
		ExternalID:     externalID,
		Name:           "学生" + externalID,
		SemesterID:     "sem-1",
		ProgrammeID:    "prog-1",
		PreferenceText: preferenceText,
	}
	repo.Student.(*mockStudentRepo).add(st)
	return st
}

func TestLabelService_Run_NoVocabulary(t *testing.T) {
	svc, _ := setupLabelTest(&fakeCategorizer{}, labelTestConfig(50, 3))

	if _, err := svc.Run(context.Background(), "sem-1"); !errors.Is(err, ErrNoVocabulary) {
		t.Errorf("词汇表为空应返回 ErrNoVocabulary, 实际 %v", err)
	}
}

func TestLabelService_Run_NoStudents(t *testing.T) {
	svc, repo := setupLabelTest(&fakeCategorizer{}, labelTestConfig(50, 3))
	addTopics(repo, "Machine Learning")

	result, err := svc.Run(context.Background(), "sem-1")
	if err != nil {
		t.Fatalf("没有可标注学生不应报错: %v", err)
	}
	if result.Students != 0 || result.Labeled != 0 {
		t.Errorf("期望空结果, 实际 %+v", result)
	}
}

func TestLabelService_Run_Success(t *testing.T) {
	cat := &fakeCategorizer{
		results: []categorizer.Classification{
			{StudentID: "stu-1", Positive: []string{"Machine Learning"}, Negative: []string{"Networking"}},
			{StudentID: "stu-2", Positive: []string{"Databases"}},
		},
	}
	svc, repo := setupLabelTest(cat, labelTestConfig(50, 3))
	addTopics(repo, "Machine Learning", "Networking", "Databases")
	addStudent(repo, "stu-1", "20230001", "I like ML, not networking.")
	addStudent(repo, "stu-2", "20230002", "Databases please.")
	addStudent(repo, "stu-3", "20230003", "") // 无偏好文本, 不参与

	result, err := svc.Run(context.Background(), "sem-1")
	if err != nil {
		t.Fatalf("Run 应成功: %v", err)
	}
	if result.Students != 2 || result.Labeled != 2 || result.FailedBatches != 0 {
		t.Errorf("结果不符: %+v", result)
	}

	st1, _ := repo.Student.GetByID(context.Background(), "stu-1")
	if len(st1.PositiveTopics) != 1 || st1.PositiveTopics[0].Name != "Machine Learning" {
		t.Errorf("stu-1 正向课题不符: %v", st1.PositiveTopics)
	}
	if len(st1.NegativeTopics) != 1 || st1.NegativeTopics[0].Name != "Networking" {
		t.Errorf("stu-1 负向课题不符: %v", st1.NegativeTopics)
	}
}

func TestLabelService_Run_PartialBatchFailure(t *testing.T) {
	// 批大小 1 → 两批; 重试上限 2, 前 2 次调用都失败 → 第一批耗尽跳过, 第二批成功
	cat := &fakeCategorizer{
		failures: 2,
		results: []categorizer.Classification{
			{StudentID: "stu-1", Positive: []string{"Machine Learning"}},
			{StudentID: "stu-2", Positive: []string{"Machine Learning"}},
		},
	}
	svc, repo := setupLabelTest(cat, labelTestConfig(1, 2))
	addTopics(repo, "Machine Learning")
	addStudent(repo, "stu-1", "20230001", "ML")
	addStudent(repo, "stu-2", "20230002", "ML too")

	result, err := svc.Run(context.Background(), "sem-1")
	if err != nil {
		t.Fatalf("部分批次失败不应整体报错: %v", err)
	}
	if result.Batches != 2 || result.FailedBatches != 1 {
		t.Errorf("期望 2 批中 1 批失败, 实际 %+v", result)
	}
	if result.Labeled != 1 {
		t.Errorf("只应有第二批的 1 名学生被标注, 实际 %d", result.Labeled)
	}

	st1, _ := repo.Student.GetByID(context.Background(), "stu-1")
	if len(st1.PositiveTopics) != 0 {
		t.Errorf("失败批次的学生不应有标注: %v", st1.PositiveTopics)
	}
}

func TestLabelService_Run_AllBatchesFailed(t *testing.T) {
	cat := &fakeCategorizer{failures: 100}
	svc, repo := setupLabelTest(cat, labelTestConfig(1, 2))
	addTopics(repo, "Machine Learning")
	addStudent(repo, "stu-1", "20230001", "ML")

	if _, err := svc.Run(context.Background(), "sem-1"); !errors.Is(err, ErrAllBatchesFailed) {
		t.Errorf("全部批次失败应返回 ErrAllBatchesFailed, 实际 %v", err)
	}
}

func TestLabelService_Run_SkipsUnknownTopicsAndStudents(t *testing.T) {
	cat := &fakeCategorizer{
		results: []categorizer.Classification{
			{StudentID: "stu-1", Positive: []string{"Machine Learning", "幽灵课题"}},
			{StudentID: "stu-ghost", Positive: []string{"Machine Learning"}},
		},
	}
	svc, repo := setupLabelTest(cat, labelTestConfig(50, 1))
	addTopics(repo, "Machine Learning")
	addStudent(repo, "stu-1", "20230001", "ML")

	result, err := svc.Run(context.Background(), "sem-1")
	if err != nil {
		t.Fatalf("Run 应成功: %v", err)
	}
	if result.Labeled != 1 {
		t.Errorf("未知学生应被跳过, 实际标注 %d", result.Labeled)
	}

	st1, _ := repo.Student.GetByID(context.Background(), "stu-1")
	if len(st1.PositiveTopics) != 1 {
		t.Errorf("词汇表外的课题名应被丢弃: %v", st1.PositiveTopics)
	}
}

func TestLabelService_Run_CancelledBetweenBatches(t *testing.T) {
	cat := &fakeCategorizer{
		results: []categorizer.Classification{
			{StudentID: "stu-1", Positive: []string{"Machine Learning"}},
			{StudentID: "stu-2", Positive: []string{"Machine Learning"}},
		},
	}
	cfg := labelTestConfig(1, 1)
	cfg.InterBatchDelay = 1 // 进入批间等待以感知取消
	svc, repo := setupLabelTest(cat, cfg)
	addTopics(repo, "Machine Learning")
	addStudent(repo, "stu-1", "20230001", "ML")
	addStudent(repo, "stu-2", "20230002", "ML too")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Run(ctx, "sem-1"); !errors.Is(err, context.Canceled) {
		t.Errorf("已取消的上下文应返回 context.Canceled, 实际 %v", err)
	}
}

// [自证通过] internal/service/label_service_test.go
