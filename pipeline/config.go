package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/recipekit/core"
)

// Set 是多条 Pipeline 的配置集合，按名称索引，例如 personalized / popular。
type Set struct {
	Pipelines map[string][]NodeConfig `yaml:"pipelines" json:"pipelines"`
}

// NodeConfig 是单个 Node 的配置。
type NodeConfig struct {
	Type   string                 `yaml:"type" json:"type"`     // recall.keyword / rank.relevance / rerank.page 等
	Config map[string]interface{} `yaml:"config" json:"config"` // Node 特定配置
}

// Deps 是构建 Node 时注入的运行时依赖。
type Deps struct {
	Repo  core.Repository
	Store core.Store
}

// NodeBuilder 根据配置与依赖构建 Node。
type NodeBuilder func(cfg map[string]interface{}, deps Deps) (Node, error)

// LoadSetFile 按扩展名（.json 或 YAML）读取多条 Pipeline 的配置。
func LoadSetFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseSetJSON(data)
	}
	return ParseSetYAML(data)
}

// ParseSetJSON 解析多条 Pipeline 的 JSON 配置。
func ParseSetJSON(data []byte) (*Set, error) {
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &set, nil
}

// ParseSetYAML 解析多条 Pipeline 的 YAML 配置。
func ParseSetYAML(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &set, nil
}

// Build 按顺序构建 Node 列表。
func Build(name string, ncs []NodeConfig, factory *NodeFactory, deps Deps) (*Pipeline, error) {
	nodes := make([]Node, 0, len(ncs))
	for _, nc := range ncs {
		node, err := factory.Build(nc.Type, nc.Config, deps)
		if err != nil {
			return nil, fmt.Errorf("build node %s: %w", nc.Type, err)
		}
		nodes = append(nodes, node)
	}
	return &Pipeline{Name: name, Nodes: nodes}, nil
}

// NodeFactory 用于根据配置构建 Node 实例。
type NodeFactory struct {
	builders map[string]NodeBuilder
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{
		builders: make(map[string]NodeBuilder),
	}
}

// Register 注册 Node 构建器。
func (f *NodeFactory) Register(nodeType string, builder NodeBuilder) {
	f.builders[nodeType] = builder
}

// Build 根据类型和配置构建 Node。
func (f *NodeFactory) Build(nodeType string, config map[string]interface{}, deps Deps) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", nodeType)
	}
	if config == nil {
		config = map[string]interface{}{}
	}
	return builder(config, deps)
}
