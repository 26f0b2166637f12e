// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Vector 是以 JSON 形式存储在数据库列中的定长向量。
type Vector []float32

// Value 实现 driver.Valuer 接口。
func (v Vector) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Scan 实现 sql.Scanner 接口。
func (v *Vector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, v)
	case string:
		return json.Unmarshal([]byte(data), v)
	default:
		return errors.New("不支持的向量列类型")
	}
}

// StringList 是以 JSON 形式存储的字符串数组列（如分类标签）。
type StringList []string

// Value 实现 driver.Valuer 接口。
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan 实现 sql.Scanner 接口。
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, l)
	case string:
		return json.Unmarshal([]byte(data), l)
	default:
		return errors.New("不支持的字符串数组列类型")
	}
}

// MetadataMap 是以 JSON 形式存储的文档提取元数据（来自 Tika /meta）。
type MetadataMap map[string]interface{}

// Value 实现 driver.Valuer 接口。
func (m MetadataMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(map[string]interface{}{})
	}
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner 接口。
func (m *MetadataMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, m)
	case string:
		return json.Unmarshal([]byte(data), m)
	default:
		return errors.New("不支持的元数据列类型")
	}
}

// 文档处理状态。
const (
	DocumentStatusPending   = 0 // 已上传，等待解析
	DocumentStatusCompleted = 1 // 解析与索引完成
	DocumentStatusFailed    = 2 // 处理失败
)

// Document 对应于数据库中的 'documents' 表。
// Content 是提取后的全文，一经写入不再修改；其偏移量被 Segment 直接引用。
type Document struct {
	ID          string      `gorm:"type:varchar(32);primaryKey" json:"fileId"`
	Filename    string      `gorm:"type:varchar(255);not null" json:"filename"`
	ContentType string      `gorm:"type:varchar(128)" json:"contentType"`
	Metadata    MetadataMap `gorm:"type:json" json:"metadata"`
	Content     string      `gorm:"type:longtext" json:"content"`
	Categories  StringList  `gorm:"type:json" json:"categories"`
	UserID      uint        `gorm:"not null;index" json:"userId"`
	Size        int64       `gorm:"not null;default:0" json:"size"`
	// Status: 0 处理中, 1 已完成, 2 处理失败
	Status    int       `gorm:"type:tinyint;not null;default:0" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}

// Segment 对应于数据库中的 'document_segments' 表。
// 每条记录表示文档正文中的一个非空行，偏移量为半开区间 [StartPosition, EndPosition)，
// 以字符（rune）为单位，EndPosition 包含行终止符。
type Segment struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID string `gorm:"type:varchar(32);not null;index" json:"documentId"`
	Embedding  Vector `gorm:"type:json" json:"-"`
	// StartPosition/EndPosition 是文档 Content 中的字符偏移。
	StartPosition int       `gorm:"not null" json:"startPosition"`
	EndPosition   int       `gorm:"not null" json:"endPosition"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Segment) TableName() string {
	return "document_segments"
}
