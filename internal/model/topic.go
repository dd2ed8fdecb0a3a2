package model

import "time"

// Topic 标准化课题表 — 对应 topics
// 由课题标准化任务创建；标注与分配阶段只引用、不修改
type Topic struct {
	TopicID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"topic_id"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex"         json:"name"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (Topic) TableName() string { return "topics" }

// RawTerm 原始专长词映射表 — 对应 raw_terms
// 多个原始词映射到同一个伞形课题（N:1）；是"该词是否已标准化"的唯一依据
type RawTerm struct {
	RawTermID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"raw_term_id"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex"         json:"name"`
	TopicID   string    `gorm:"type:uuid;not null;index"                       json:"topic_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// 关联
	Topic *Topic `gorm:"foreignKey:TopicID;references:TopicID" json:"topic,omitempty"`
}

// TableName 指定表名
func (RawTerm) TableName() string { return "raw_terms" }

// [自证通过] internal/model/topic.go
