package model

import (
	"context"
	"fmt"
	"sort"

	"github.com/bertugfahriozer/ci4commonModel/engine"
	"gorm.io/gorm"
)

// Row 查询结果行,列名到值的映射,结构由底层表定义决定
type Row = map[string]any

// Join 连接描述。Type 原样透传给引擎,不做合法性校验,
// 非法的连接类型由引擎在执行时报错。
type Join struct {
	Table     string
	Condition string
	Type      string
}

// ListOptions 查询模式选项
type ListOptions struct {
	// IsReset 为 true 时切换为单行抓取,忽略 Limit/Offset
	IsReset bool
}

// ListQuery 一次查询的完整描述,在调用入口构造,调用内消费,不被保留
type ListQuery struct {
	Table   string
	Select  string            // 默认 "*"
	Where   map[string]any    // AND 等值条件
	OrWhere map[string]any    // 与 Where 整体以 OR 组合
	Like    map[string]string // 组合规则见 Compose
	Joins   []Join            // 按声明顺序接入,先于过滤条件
	Order   string            // 原样透传的 "列 方向" 字符串,默认 "id ASC"
	Limit   int               // 0 表示不加 LIMIT
	Offset  int               // 0 表示不加 OFFSET
	Options ListOptions
}

const (
	defaultSelect = "*"
	defaultOrder  = "id ASC"
)

// CommonModel 通用数据访问层。把松散的过滤/选项参数组装为一条引擎查询,
// 自身无状态,不做重试、不做日志、不吞并引擎错误。
type CommonModel struct {
	engine *engine.Engine
}

func NewCommonModel(e *engine.Engine) *CommonModel {
	return &CommonModel{engine: e}
}

// NewCommonModelWithGroup 按连接组名解析连接后构造
func NewCommonModelWithGroup(groups *engine.Groups, group string) (*CommonModel, error) {
	e, err := groups.Connect(group)
	if err != nil {
		return nil, err
	}
	return &CommonModel{engine: e}, nil
}

// Compose 按固定顺序组装查询:表/列选择 → 连接 → Where → OrWhere → Like → 排序。
// 组装本身不触发任何数据库请求,返回的语句可继续扩展(分页、DryRun 等)。
//
// Like 的组合规则:
//   - 恰好一项:单个 LIKE 条件,与既有过滤条件 AND 组合
//   - 两项以上:构成一个括号分组,组内各项 OR,分组整体与既有条件 AND 组合,
//     即 AND (col1 LIKE ... OR col2 LIKE ...)
func (m *CommonModel) Compose(ctx context.Context, q *ListQuery) *gorm.DB {
	sel := q.Select
	if sel == "" {
		sel = defaultSelect
	}
	order := q.Order
	if order == "" {
		order = defaultOrder
	}

	tx := m.engine.Session(ctx).Table(q.Table).Select(sel)

	for _, j := range q.Joins {
		tx = tx.Joins(joinClause(j))
	}

	if len(q.Where) > 0 {
		tx = tx.Where(q.Where)
	}
	if len(q.OrWhere) > 0 {
		tx = tx.Or(q.OrWhere)
	}

	tx = m.applyGroupedLike(tx, q.Like)

	return tx.Order(order)
}

// applyGroupedLike 按 Compose 注释中的分组规则接入 LIKE 条件。
// 键按字典序展开,保证生成的 SQL 稳定。
func (m *CommonModel) applyGroupedLike(tx *gorm.DB, like map[string]string) *gorm.DB {
	if len(like) == 0 {
		return tx
	}

	keys := sortedKeys(like)
	if len(keys) == 1 {
		return tx.Where(keys[0]+" LIKE ?", contains(like[keys[0]]))
	}

	group := m.engine.DB().Where(keys[0]+" LIKE ?", contains(like[keys[0]]))
	for _, k := range keys[1:] {
		group = group.Or(k+" LIKE ?", contains(like[k]))
	}
	return tx.Where(group)
}

// Lists 组装并执行查询。Options.IsReset 为 true 时进入单行模式:
// 忽略 Limit/Offset,返回至多一行;否则按 Limit/Offset 分页返回多行。
func (m *CommonModel) Lists(ctx context.Context, q *ListQuery) ([]Row, error) {
	tx := m.Compose(ctx, q)

	if q.Options.IsReset {
		return fetchRows(tx.Limit(1))
	}

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	return fetchRows(tx)
}

// WhereWithJoins 与 Lists 采用同一套子句组装规则,但始终走多行模式
func (m *CommonModel) WhereWithJoins(ctx context.Context, q *ListQuery) ([]Row, error) {
	tx := m.Compose(ctx, q)

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	return fetchRows(tx)
}

// Create 插入单行并返回引擎分配的自增主键。
// 主键查询与插入在同一事务内执行,保证取到的是同一连接上的插入结果。
// 表没有自增主键时返回引擎的默认值。
func (m *CommonModel) Create(ctx context.Context, table string, data map[string]any) (int64, error) {
	var id int64
	err := m.engine.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Table(table).Create(data).Error; err != nil {
			return err
		}
		return tx.Raw(m.engine.LastInsertIDQuery()).Scan(&id).Error
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreateMany 一次批量插入全部行,返回引擎报告的影响行数。
// 空列表按引擎默认行为处理:gorm 返回 ErrEmptySlice,本层不做吞并。
func (m *CommonModel) CreateMany(ctx context.Context, table string, rows []map[string]any) (int64, error) {
	res := m.engine.Session(ctx).Table(table).Create(rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Edit 按 AND 等值条件更新。空 where 会更新整表,由调用方负责。
func (m *CommonModel) Edit(ctx context.Context, table string, data map[string]any, where map[string]any) (bool, error) {
	tx := m.engine.Session(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Table(table)
	if len(where) > 0 {
		tx = tx.Where(where)
	}
	if err := tx.Updates(data).Error; err != nil {
		return false, err
	}
	return true, nil
}

// Remove 按 AND 等值条件删除。空 where 会清空整表,由调用方负责。
func (m *CommonModel) Remove(ctx context.Context, table string, where map[string]any) (bool, error) {
	tx := m.engine.Session(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Table(table)
	if len(where) > 0 {
		tx = tx.Where(where)
	}
	if err := tx.Delete(nil).Error; err != nil {
		return false, err
	}
	return true, nil
}

// SelectOne 返回第一条匹配记录。无匹配时返回 nil,不视为错误。
func (m *CommonModel) SelectOne(ctx context.Context, table string, where map[string]any, sel string, order string) (Row, error) {
	if sel == "" {
		sel = defaultSelect
	}
	if order == "" {
		order = defaultOrder
	}

	tx := m.engine.Session(ctx).Table(table).Select(sel)
	if len(where) > 0 {
		tx = tx.Where(where)
	}

	rows, err := fetchRows(tx.Order(order).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Count 返回满足条件的行数,不物化任何行数据
func (m *CommonModel) Count(ctx context.Context, table string, where map[string]any) (int64, error) {
	var count int64
	tx := m.engine.Session(ctx).Table(table)
	if len(where) > 0 {
		tx = tx.Where(where)
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// IsHave 存在性检查。抓取上限为 1 行,恒返回 0 或 1,不返回真实匹配数
func (m *CommonModel) IsHave(ctx context.Context, table string, where map[string]any) (int, error) {
	tx := m.engine.Session(ctx).Table(table)
	if len(where) > 0 {
		tx = tx.Where(where)
	}

	rows, err := fetchRows(tx.Limit(1))
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// WhereInCheckData 对 column 做 IN 检查。抓取上限为 1 行,恒返回 0 或 1
func (m *CommonModel) WhereInCheckData(ctx context.Context, column string, table string, values []any) (int, error) {
	tx := m.engine.Session(ctx).
		Table(table).
		Where(fmt.Sprintf("%s IN ?", column), values)

	rows, err := fetchRows(tx.Limit(1))
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Research 先接入过滤条件,再把全部 LIKE 项按引擎默认方式追加:
// 不加括号分组,首项 AND 接入,其余项 OR 追加。
// 与 Lists 的分组规则刻意保持不同,两种行为分别保留。
func (m *CommonModel) Research(ctx context.Context, table string, like map[string]string, sel string, where map[string]any) ([]Row, error) {
	if sel == "" {
		sel = defaultSelect
	}

	tx := m.engine.Session(ctx).Table(table).Select(sel)
	if len(where) > 0 {
		tx = tx.Where(where)
	}

	for i, k := range sortedKeys(like) {
		if i == 0 {
			tx = tx.Where(k+" LIKE ?", contains(like[k]))
		} else {
			tx = tx.Or(k+" LIKE ?", contains(like[k]))
		}
	}

	return fetchRows(tx)
}

// NotWhereInList 接入连接后对 column 做 NOT IN 排除,按 order 排序返回全部行,
// 不支持分页
func (m *CommonModel) NotWhereInList(ctx context.Context, table string, sel string, joins []Join, column string, values []any, order string) ([]Row, error) {
	if sel == "" {
		sel = defaultSelect
	}
	if order == "" {
		order = defaultOrder
	}

	tx := m.engine.Session(ctx).Table(table).Select(sel)
	for _, j := range joins {
		tx = tx.Joins(joinClause(j))
	}
	tx = tx.Where(fmt.Sprintf("%s NOT IN ?", column), values)

	return fetchRows(tx.Order(order))
}

func joinClause(j Join) string {
	if j.Type == "" {
		return fmt.Sprintf("JOIN %s ON %s", j.Table, j.Condition)
	}
	return fmt.Sprintf("%s JOIN %s ON %s", j.Type, j.Table, j.Condition)
}

func contains(pattern string) string {
	return "%" + pattern + "%"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fetchRows(tx *gorm.DB) ([]Row, error) {
	var rows []Row
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
