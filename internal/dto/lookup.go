package dto

// ── 只读查询 DTO ──

// SemesterResponse 学期信息响应
type SemesterResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IsActive  bool   `json:"is_active"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TopicResponse 标准化课题响应
type TopicResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	RawTerms []string `json:"raw_terms,omitempty"` // 映射到该课题的原始词
}

// [自证通过] internal/dto/lookup.go
