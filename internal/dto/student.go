package dto

// ── 学生模块 DTO ──

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	SemesterID string `form:"semester_id" binding:"required,uuid"`
	PaginationRequest
}

// StudentResponse 学生信息响应
type StudentResponse struct {
	ID                 string           `json:"id"`
	ExternalID         string           `json:"external_id"`
	Name               string           `json:"name"`
	Programme          *ProgrammeBrief  `json:"programme,omitempty"`
	SemesterID         string           `json:"semester_id"`
	PreferenceText     string           `json:"preference_text,omitempty"`
	PositiveTopics     []string         `json:"positive_topics"`
	NegativeTopics     []string         `json:"negative_topics"`
	Supervisor         *SupervisorBrief `json:"supervisor,omitempty"`
	ProgrammeMatchType *int             `json:"programme_match_type,omitempty"`
	MatchingTopics     []string         `json:"matching_topics"`
	ConflictingTopics  []string         `json:"conflicting_topics"`
	CreatedAt          string           `json:"created_at"`
	UpdatedAt          string           `json:"updated_at"`
}

// [自证通过] internal/dto/student.go
