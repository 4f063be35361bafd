package schema

import (
	"context"
	"testing"

	"github.com/bertugfahriozer/ci4commonModel/engine"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestEngine() *engine.Engine {
	e, err := engine.NewEngineWithOptions(&engine.Options{
		Driver:   "sqlite",
		DSN:      ":memory:",
		MaxConns: 1,
		MaxIdle:  1,
	})
	if err != nil {
		panic(err)
	}
	return e
}

var userFields = []FieldDefinition{
	{Name: "id", Type: FieldTypeInt, AutoIncrement: true},
	{Name: "name", Type: FieldTypeString, Required: true},
	{Name: "status", Type: FieldTypeInt, Default: 0},
}

func TestSchemaTableLifecycle(t *testing.T) {
	Convey("测试表的创建、改名和删除", t, func() {
		e := newTestEngine()
		defer e.Close()
		s := NewSchema(e)
		ctx := context.Background()

		Convey("NewTable 建表后 TableExists 为真,重复建表不报错", func() {
			ok, err := s.NewTable(ctx, "users", userFields, []string{"id"})
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(s.TableExists(ctx, "users"), ShouldBeTrue)

			ok, err = s.NewTable(ctx, "users", userFields, []string{"id"})
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
		})

		Convey("RenameTable 改名后旧表名不再存在", func() {
			_, err := s.NewTable(ctx, "accounts", userFields, []string{"id"})
			So(err, ShouldBeNil)

			ok, err := s.RenameTable(ctx, "accounts", "members")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(s.TableExists(ctx, "accounts"), ShouldBeFalse)
			So(s.TableExists(ctx, "members"), ShouldBeTrue)
		})

		Convey("RemoveTable 删表后 TableExists 为假", func() {
			_, err := s.NewTable(ctx, "tmp", userFields, []string{"id"})
			So(err, ShouldBeNil)

			ok, err := s.RemoveTable(ctx, "tmp")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(s.TableExists(ctx, "tmp"), ShouldBeFalse)
		})
	})
}

func TestSchemaColumns(t *testing.T) {
	Convey("测试列操作", t, func() {
		e := newTestEngine()
		defer e.Close()
		s := NewSchema(e)
		ctx := context.Background()

		_, err := s.NewTable(ctx, "users", userFields, []string{"id"})
		So(err, ShouldBeNil)

		Convey("AddColumnToTable 增列后可以写入新列", func() {
			ok, err := s.AddColumnToTable(ctx, "users", FieldDefinition{
				Name: "age", Type: FieldTypeInt,
			})
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			err = e.Session(ctx).Exec("INSERT INTO users (name, age) VALUES (?, ?)", "A", 30).Error
			So(err, ShouldBeNil)
		})

		Convey("RemoveColumnFromTable 删列后写入旧列报错", func() {
			_, err := s.AddColumnToTable(ctx, "users", FieldDefinition{Name: "nick", Type: FieldTypeString})
			So(err, ShouldBeNil)

			ok, err := s.RemoveColumnFromTable(ctx, "users", "nick")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			err = e.Session(ctx).Exec("INSERT INTO users (name, nick) VALUES (?, ?)", "A", "a").Error
			So(err, ShouldNotBeNil)
		})

		Convey("ModifyColumnInTable 在 sqlite 上原样上抛引擎错误", func() {
			ok, err := s.ModifyColumnInTable(ctx, "users", FieldDefinition{
				Name: "name", Type: FieldTypeString, Size: 64,
			})
			So(err, ShouldNotBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestSchemaIndexes(t *testing.T) {
	Convey("测试索引操作", t, func() {
		e := newTestEngine()
		defer e.Close()
		s := NewSchema(e)
		ctx := context.Background()

		_, err := s.NewTable(ctx, "users", userFields, []string{"id"})
		So(err, ShouldBeNil)

		Convey("NewIndex 建唯一索引后重复值被拒绝", func() {
			ok, err := s.NewIndex(ctx, "users", IndexDefinition{
				Name: "uk_name", Fields: []string{"name"}, Unique: true,
			})
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			So(e.Session(ctx).Exec("INSERT INTO users (name) VALUES (?)", "A").Error, ShouldBeNil)
			So(e.Session(ctx).Exec("INSERT INTO users (name) VALUES (?)", "A").Error, ShouldNotBeNil)
		})

		Convey("DropKey 删索引后重复值可以写入", func() {
			_, err := s.NewIndex(ctx, "users", IndexDefinition{
				Name: "uk_name2", Fields: []string{"name"}, Unique: true,
			})
			So(err, ShouldBeNil)

			ok, err := s.DropKey(ctx, "users", "uk_name2")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			So(e.Session(ctx).Exec("INSERT INTO users (name) VALUES (?)", "B").Error, ShouldBeNil)
			So(e.Session(ctx).Exec("INSERT INTO users (name) VALUES (?)", "B").Error, ShouldBeNil)
		})
	})
}
