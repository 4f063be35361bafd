package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/bertugfahriozer/ci4commonModel/engine"
)

// Schema 表结构构建器,把每个 DDL 操作一比一转发给引擎。
// 不做本地校验,执行失败原样返回引擎错误。
type Schema struct {
	engine *engine.Engine
}

func NewSchema(e *engine.Engine) *Schema {
	return &Schema{engine: e}
}

// NewTable 建表,表已存在时不报错
func (s *Schema) NewTable(ctx context.Context, table string, fields []FieldDefinition, primaryKey []string) (bool, error) {
	sqlStr := buildCreateTableSQL(s.engine.Driver(), table, fields, primaryKey)
	if err := s.engine.Session(ctx).Exec(sqlStr).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *Schema) RemoveTable(ctx context.Context, table string) (bool, error) {
	if err := s.engine.Session(ctx).Migrator().DropTable(table); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Schema) TableExists(ctx context.Context, table string) bool {
	return s.engine.Session(ctx).Migrator().HasTable(table)
}

func (s *Schema) RenameTable(ctx context.Context, oldName string, newName string) (bool, error) {
	if err := s.engine.Session(ctx).Migrator().RenameTable(oldName, newName); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Schema) AddColumnToTable(ctx context.Context, table string, field FieldDefinition) (bool, error) {
	sqlStr := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s",
		table, buildColumnDefinition(s.engine.Driver(), field))
	if err := s.engine.Session(ctx).Exec(sqlStr).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *Schema) RemoveColumnFromTable(ctx context.Context, table string, column string) (bool, error) {
	sqlStr := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, column)
	if err := s.engine.Session(ctx).Exec(sqlStr).Error; err != nil {
		return false, err
	}
	return true, nil
}

// ModifyColumnInTable 修改列定义。MODIFY COLUMN 为 MySQL 方言,
// sqlite 不支持该语句,错误由引擎上抛。
func (s *Schema) ModifyColumnInTable(ctx context.Context, table string, field FieldDefinition) (bool, error) {
	sqlStr := fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s",
		table, buildColumnDefinition(s.engine.Driver(), field))
	if err := s.engine.Session(ctx).Exec(sqlStr).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *Schema) NewIndex(ctx context.Context, table string, index IndexDefinition) (bool, error) {
	sqlStr := buildCreateIndexSQL(s.engine.Driver(), table, index)
	if err := s.engine.Session(ctx).Exec(sqlStr).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *Schema) DropPrimaryKey(ctx context.Context, table string) (bool, error) {
	sqlStr := fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY", table)
	if err := s.engine.Session(ctx).Exec(sqlStr).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *Schema) DropKey(ctx context.Context, table string, key string) (bool, error) {
	var sqlStr string
	if s.engine.Driver() == "mysql" {
		sqlStr = fmt.Sprintf("ALTER TABLE %s DROP INDEX %s", table, key)
	} else {
		// sqlite 的索引独立于表
		sqlStr = fmt.Sprintf("DROP INDEX IF EXISTS %s", key)
	}
	if err := s.engine.Session(ctx).Exec(sqlStr).Error; err != nil {
		return false, err
	}
	return true, nil
}

// DropForeignKey 删除外键约束,MySQL 方言
func (s *Schema) DropForeignKey(ctx context.Context, table string, foreignKey string) (bool, error) {
	sqlStr := fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", table, foreignKey)
	if err := s.engine.Session(ctx).Exec(sqlStr).Error; err != nil {
		return false, err
	}
	return true, nil
}

// NewDatabase 建库。sqlite 的库即文件,语句会被引擎拒绝
func (s *Schema) NewDatabase(ctx context.Context, name string) (bool, error) {
	sqlStr := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", name)
	if err := s.engine.Session(ctx).Exec(sqlStr).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *Schema) RemoveDatabase(ctx context.Context, name string) (bool, error) {
	sqlStr := fmt.Sprintf("DROP DATABASE IF EXISTS %s", name)
	if err := s.engine.Session(ctx).Exec(sqlStr).Error; err != nil {
		return false, err
	}
	return true, nil
}

// buildCreateTableSQL 构建创建表的 SQL 语句
func buildCreateTableSQL(driver string, table string, fields []FieldDefinition, primaryKey []string) string {
	var columns []string
	inlinePrimaryKey := false

	for _, field := range fields {
		columns = append(columns, buildColumnDefinition(driver, field))
		// sqlite 的自增列必须内联声明为主键
		if field.AutoIncrement && driver == "sqlite" {
			inlinePrimaryKey = true
		}
	}

	if len(primaryKey) > 0 && !inlinePrimaryKey {
		pkDef := fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKey, ", "))
		columns = append(columns, pkDef)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		table, strings.Join(columns, ",\n  "))
}

// buildColumnDefinition 构建单个字段定义
func buildColumnDefinition(driver string, field FieldDefinition) string {
	if field.AutoIncrement && driver == "sqlite" {
		return field.Name + " INTEGER PRIMARY KEY AUTOINCREMENT"
	}

	var parts []string
	parts = append(parts, field.Name)
	parts = append(parts, mapFieldTypeToSQL(driver, field.Type, field.Size))

	if field.Required {
		parts = append(parts, "NOT NULL")
	}

	if field.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	} else if field.Default != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", formatDefaultValue(field.Default)))
	}

	return strings.Join(parts, " ")
}

// mapFieldTypeToSQL 将字段类型映射为 SQL 类型
func mapFieldTypeToSQL(driver string, fieldType FieldType, size int) string {
	switch fieldType {
	case FieldTypeString:
		if driver == "sqlite" {
			return "TEXT"
		}
		if size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", size)
		}
		return "VARCHAR(255)"
	case FieldTypeInt:
		if driver == "sqlite" {
			return "INTEGER"
		}
		return "INT"
	case FieldTypeFloat:
		if driver == "sqlite" {
			return "REAL"
		}
		return "FLOAT"
	case FieldTypeBool:
		if driver == "sqlite" {
			return "INTEGER"
		}
		return "BOOLEAN"
	case FieldTypeDate:
		if driver == "sqlite" {
			return "TEXT"
		}
		return "DATETIME"
	case FieldTypeJSON:
		if driver == "mysql" {
			return "JSON"
		}
		return "TEXT"
	default:
		if driver == "sqlite" {
			return "TEXT"
		}
		return "VARCHAR(255)"
	}
}

// formatDefaultValue 格式化默认值
func formatDefaultValue(value any) string {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("'%s'", strings.ReplaceAll(v, "'", "''"))
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// buildCreateIndexSQL 构建创建索引的 SQL 语句
func buildCreateIndexSQL(driver string, table string, index IndexDefinition) string {
	indexType := "INDEX"
	if index.Unique {
		indexType = "UNIQUE INDEX"
	}

	// MySQL 不支持 IF NOT EXISTS 语法用于索引
	if driver == "mysql" {
		return fmt.Sprintf("CREATE %s %s ON %s (%s)",
			indexType, index.Name, table, strings.Join(index.Fields, ", "))
	}

	return fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s (%s)",
		indexType, index.Name, table, strings.Join(index.Fields, ", "))
}
