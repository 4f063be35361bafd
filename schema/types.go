package schema

// FieldType 字段类型
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeBool   FieldType = "bool"
	FieldTypeDate   FieldType = "date"
	FieldTypeJSON   FieldType = "json"
)

// FieldDefinition 字段定义
type FieldDefinition struct {
	Name          string
	Type          FieldType
	Required      bool
	Default       any
	Size          int // 字段长度,如 VARCHAR(255)
	AutoIncrement bool
}

// IndexDefinition 索引定义
type IndexDefinition struct {
	Name   string
	Fields []string
	Unique bool
}
