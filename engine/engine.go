package engine

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options 数据库连接配置
type Options struct {
	Driver   string `yaml:"driver" validate:"omitempty,oneof=mysql sqlite"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Charset  string `yaml:"charset"`
	MaxConns int    `yaml:"maxConns" validate:"min=0"`
	MaxIdle  int    `yaml:"maxIdle" validate:"min=0"`
	LogLevel string `yaml:"logLevel" validate:"omitempty,oneof=silent error warn info"`
}

var validate = validator.New()

// Engine 关系查询引擎,持有一个共享的数据库连接句柄。
// 所有实际的 SQL 生成、参数化和执行都委托给 gorm,本层只负责连接生命周期。
type Engine struct {
	db     *gorm.DB
	driver string
}

func NewEngineWithOptions(options *Options) (*Engine, error) {
	if options == nil {
		return nil, errors.New("engine options is required")
	}

	applyDefaults(options)

	if err := validate.Struct(options); err != nil {
		return nil, errors.Wrap(err, "invalid engine options")
	}

	dsn := buildDSN(options)

	config := &gorm.Config{
		Logger: logger.Default.LogMode(parseLogLevel(options.LogLevel)),
	}

	var db *gorm.DB
	var err error
	switch options.Driver {
	case "mysql":
		db, err = gorm.Open(mysql.Open(dsn), config)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(dsn), config)
	default:
		return nil, errors.Errorf("unsupported driver: %s", options.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get underlying sql.DB")
	}

	sqlDB.SetMaxOpenConns(options.MaxConns)
	sqlDB.SetMaxIdleConns(options.MaxIdle)

	if err := sqlDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return &Engine{
		db:     db,
		driver: options.Driver,
	}, nil
}

// applyDefaults 填充默认配置
func applyDefaults(options *Options) {
	if options.Driver == "" {
		options.Driver = "mysql"
	}
	if options.Host == "" {
		options.Host = "localhost"
	}
	if options.Port == "" {
		options.Port = "3306"
	}
	if options.Charset == "" {
		options.Charset = "utf8mb4"
	}
	if options.MaxConns == 0 {
		options.MaxConns = 10
	}
	if options.MaxIdle == 0 {
		options.MaxIdle = 5
	}
	if options.LogLevel == "" {
		options.LogLevel = "silent"
	}
}

// buildDSN 未显式指定 DSN 时按驱动拼装
func buildDSN(options *Options) string {
	if options.DSN != "" {
		return options.DSN
	}

	switch options.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			options.Username, options.Password, options.Host, options.Port, options.Database, options.Charset)
	case "sqlite":
		return options.Database
	}
	return ""
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

// DB 返回底层 gorm 句柄,供构造嵌套条件分组或扩展查询使用
func (e *Engine) DB() *gorm.DB {
	return e.db
}

func (e *Engine) Driver() string {
	return e.driver
}

// Session 返回绑定 ctx 的新语句,调用方在其上组装并执行一次请求
func (e *Engine) Session(ctx context.Context) *gorm.DB {
	return e.db.WithContext(ctx)
}

// WithTx 在单个事务中执行 fn,fn 返回错误时回滚
func (e *Engine) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return e.db.WithContext(ctx).Transaction(fn)
}

// LastInsertIDQuery 返回取自增主键的语句,随驱动方言变化。
// 必须与插入语句在同一连接上执行才有意义。
func (e *Engine) LastInsertIDQuery() string {
	if e.driver == "sqlite" {
		return "SELECT last_insert_rowid()"
	}
	return "SELECT LAST_INSERT_ID()"
}

func (e *Engine) Close() error {
	sqlDB, err := e.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying sql.DB")
	}
	return sqlDB.Close()
}
