package worker

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/gammazero/toposort"

	"github.com/moxying/mox/client"
)

//go:embed templates/basic_txt2img.json
var basicTxt2ImgJSON []byte

// 文生图模板的参数坐标。节点编号+字段名属于模板契约，不做动态发现。
const (
	nodeKSampler = "3"
	nodeCkpt     = "4"
	nodeLatent   = "5"
	nodePositive = "6"
	nodeNegative = "7"
)

// BuildTxt2ImgGraph 从内置模板构造一张可提交的工作流图。
// 在固定的节点+字段坐标上代入任务参数，返回图与节点的期望执行顺序。
func BuildTxt2ImgGraph(t *GenImageTask) (client.Graph, []string, error) {
	var g client.Graph
	if err := json.Unmarshal(basicTxt2ImgJSON, &g); err != nil {
		return nil, nil, fmt.Errorf("unmarshal txt2img template: %w", err)
	}
	for _, id := range []string{nodeKSampler, nodeCkpt, nodeLatent, nodePositive, nodeNegative} {
		if _, ok := g[id]; !ok {
			return nil, nil, fmt.Errorf("txt2img template missing node %s", id)
		}
	}

	g[nodeCkpt].Inputs["ckpt_name"] = t.CkptName
	g[nodePositive].Inputs["text"] = t.Prompt
	g[nodeNegative].Inputs["text"] = t.NegativePrompt
	g[nodeLatent].Inputs["batch_size"] = t.BatchSize
	g[nodeLatent].Inputs["width"] = t.Width
	g[nodeLatent].Inputs["height"] = t.Height
	g[nodeKSampler].Inputs["seed"] = t.Seed
	g[nodeKSampler].Inputs["steps"] = t.Steps
	g[nodeKSampler].Inputs["cfg"] = t.Cfg
	g[nodeKSampler].Inputs["sampler_name"] = t.SamplerName
	g[nodeKSampler].Inputs["scheduler"] = t.Scheduler
	g[nodeKSampler].Inputs["denoise"] = t.Denoise

	order, err := NodeOrder(g)
	if err != nil {
		return nil, nil, err
	}
	return g, order, nil
}

// NodeOrder 按节点间的输入引用对图做拓扑排序，返回期望执行顺序。
// 输入字段中形如 ["4", 0] 的数组是对上游节点输出的引用。
func NodeOrder(g client.Graph) ([]string, error) {
	var edges []toposort.Edge
	for id, node := range g {
		deps := nodeDeps(g, node)
		if len(deps) == 0 {
			edges = append(edges, toposort.Edge{nil, id})
			continue
		}
		for _, dep := range deps {
			edges = append(edges, toposort.Edge{dep, id})
		}
	}
	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("workflow graph contains cycle: %w", err)
	}
	order := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}
	return order, nil
}

// nodeDeps 提取一个节点引用到的上游节点编号。
func nodeDeps(g client.Graph, node client.GraphNode) []string {
	var deps []string
	for _, v := range node.Inputs {
		ref, ok := v.([]any)
		if !ok || len(ref) != 2 {
			continue
		}
		id, ok := ref[0].(string)
		if !ok {
			continue
		}
		if _, exists := g[id]; exists {
			deps = append(deps, id)
		}
	}
	return deps
}
