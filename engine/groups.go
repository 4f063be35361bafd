package engine

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrGroupNotFound = errors.New("connection group not found")

// Groups 连接组注册表:组名到连接配置的映射。
// 每个组在第一次 Connect 时建立连接,之后复用同一个 Engine。
type Groups struct {
	mu       sync.Mutex
	profiles map[string]*Options
	engines  map[string]*Engine
}

func NewGroups(profiles map[string]*Options) *Groups {
	return &Groups{
		profiles: profiles,
		engines:  make(map[string]*Engine),
	}
}

// LoadGroupsFromFile 从 YAML 文件加载连接组配置。
// 文件格式为组名到 Options 的顶层映射:
//
//	default:
//	  driver: mysql
//	  host: db.example.com
//	  database: app
//	tests:
//	  driver: sqlite
//	  dsn: ":memory:"
func LoadGroupsFromFile(path string) (*Groups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read group config file")
	}

	var profiles map[string]*Options
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, errors.Wrap(err, "failed to parse group config file")
	}

	return NewGroups(profiles), nil
}

// Connect 解析组名并返回其连接。同一组名恒返回同一个 Engine。
func (g *Groups) Connect(group string) (*Engine, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.engines[group]; ok {
		return e, nil
	}

	profile, ok := g.profiles[group]
	if !ok {
		return nil, errors.Wrapf(ErrGroupNotFound, "group %s", group)
	}

	e, err := NewEngineWithOptions(profile)
	if err != nil {
		return nil, err
	}

	g.engines[group] = e
	return e, nil
}

// Close 关闭所有已建立的连接
func (g *Groups) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var firstErr error
	for name, e := range g.engines {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(g.engines, name)
	}
	return firstErr
}
