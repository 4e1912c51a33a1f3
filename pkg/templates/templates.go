// Package templates 内置的CRM工作流模板
package templates

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/LENAX/crm-automation/pkg/config"
)

//go:embed definitions/*.yaml
var definitionsFS embed.FS

// ErrTemplateNotFound 模板不存在
var ErrTemplateNotFound = errors.New("template not found")

// Template 工作流模板
type Template struct {
	Key    string                 `json:"key"`
	Config *config.WorkflowConfig `json:"workflow"`
}

var (
	loadOnce  sync.Once
	loaded    map[string]*Template
	loadedErr error
)

func load() (map[string]*Template, error) {
	loadOnce.Do(func() {
		entries, err := definitionsFS.ReadDir("definitions")
		if err != nil {
			loadedErr = err
			return
		}
		loaded = make(map[string]*Template, len(entries))
		for _, entry := range entries {
			name := entry.Name()
			data, err := definitionsFS.ReadFile(path.Join("definitions", name))
			if err != nil {
				loadedErr = err
				return
			}
			cfg, err := config.ParseWorkflowConfig(data)
			if err != nil {
				loadedErr = fmt.Errorf("模板 %s 无效: %w", name, err)
				return
			}
			key := strings.TrimSuffix(name, path.Ext(name))
			loaded[key] = &Template{Key: key, Config: cfg}
		}
	})
	return loaded, loadedErr
}

// List 按key排序返回所有模板，返回的是副本
func List() ([]*Template, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*Template, 0, len(keys))
	for _, k := range keys {
		out = append(out, &Template{Key: k, Config: all[k].Config.Clone()})
	}
	return out, nil
}

// Get 获取模板副本，调用方可以自由修改
func Get(key string) (*Template, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	t, ok := all[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
	}
	return &Template{Key: t.Key, Config: t.Config.Clone()}, nil
}
