// Package tree 将带 parent_id 的扁平记录构造成树形结构
package tree

import (
	"encoding/json"
	"fmt"
	"sort"
)

// BuildType 构建树形结构的算法
type BuildType string

const (
	Traversal BuildType = "traversal" // 遍历（索引 + 挂载），线性复杂度
	Recursive BuildType = "recursive" // 递归过滤，平方复杂度，仅用于小数据集
)

// ParseBuildType 解析配置中的算法类型
func ParseBuildType(s string) (BuildType, error) {
	switch BuildType(s) {
	case Traversal, Recursive:
		return BuildType(s), nil
	default:
		return "", fmt.Errorf("无效的算法类型：%s", s)
	}
}

// Record 可组装为树的记录
type Record interface {
	TreeID() uint
	TreeParentID() *uint
	TreeSort() int
}

// Node 树节点
type Node[T Record] struct {
	Item     T
	Children []*Node[T]
}

// MarshalJSON 输出记录自身字段并追加 children
func (n *Node[T]) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(n.Item)
	if err != nil {
		return nil, err
	}
	if len(n.Children) == 0 {
		return raw, nil
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("tree node item must encode as an object: %w", err)
	}
	children, err := json.Marshal(n.Children)
	if err != nil {
		return nil, err
	}
	fields["children"] = children
	return json.Marshal(fields)
}

// Build 按 sort 升序（稳定）排序后构造森林。
// rootID 为 nil 时返回所有根节点（含父节点缺失的孤儿节点），否则返回 rootID 的直接子节点。
func Build[T Record](records []T, buildType BuildType, rootID *uint) ([]*Node[T], error) {
	nodes := sortedNodes(records)
	switch buildType {
	case Traversal:
		return traverse(nodes, rootID), nil
	case Recursive:
		return recurse(nodes, rootID), nil
	default:
		return nil, fmt.Errorf("无效的算法类型：%s", buildType)
	}
}

func sortedNodes[T Record](records []T) []*Node[T] {
	nodes := make([]*Node[T], len(records))
	for i, r := range records {
		nodes[i] = &Node[T]{Item: r}
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Item.TreeSort() < nodes[j].Item.TreeSort()
	})
	return nodes
}

func traverse[T Record](nodes []*Node[T], rootID *uint) []*Node[T] {
	index := make(map[uint]*Node[T], len(nodes))
	for _, n := range nodes {
		index[n.Item.TreeID()] = n
	}

	var roots []*Node[T]
	for _, n := range nodes {
		pid := n.Item.TreeParentID()
		if pid == nil {
			roots = append(roots, n)
			continue
		}
		parent, ok := index[*pid]
		if !ok || parent == n {
			// 孤儿节点作为根节点保留
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	if rootID != nil {
		if root, ok := index[*rootID]; ok {
			return root.Children
		}
		// 根节点不在记录中时，挂在该 id 下的孤儿节点即为结果
		var under []*Node[T]
		for _, n := range roots {
			if pid := n.Item.TreeParentID(); pid != nil && *pid == *rootID {
				under = append(under, n)
			}
		}
		return under
	}
	return roots
}

func recurse[T Record](nodes []*Node[T], rootID *uint) []*Node[T] {
	known := make(map[uint]struct{}, len(nodes))
	for _, n := range nodes {
		known[n.Item.TreeID()] = struct{}{}
	}
	visited := make(map[*Node[T]]bool, len(nodes))

	var children func(parentID uint) []*Node[T]
	children = func(parentID uint) []*Node[T] {
		var level []*Node[T]
		for _, n := range nodes {
			pid := n.Item.TreeParentID()
			if pid == nil || *pid != parentID || n.Item.TreeID() == parentID || visited[n] {
				continue
			}
			visited[n] = true
			level = append(level, n)
		}
		for _, n := range level {
			n.Children = children(n.Item.TreeID())
		}
		return level
	}

	if rootID != nil {
		return children(*rootID)
	}

	var roots []*Node[T]
	for _, n := range nodes {
		if visited[n] || !isRoot(n, known) {
			continue
		}
		visited[n] = true
		roots = append(roots, n)
	}
	for _, n := range roots {
		n.Children = children(n.Item.TreeID())
	}
	return roots
}

func isRoot[T Record](n *Node[T], known map[uint]struct{}) bool {
	pid := n.Item.TreeParentID()
	if pid == nil || *pid == n.Item.TreeID() {
		return true
	}
	_, ok := known[*pid]
	return !ok
}

// Walk 深度优先遍历，每个节点只访问一次（脏数据中的环不会死循环）
func Walk[T Record](nodes []*Node[T], fn func(n *Node[T])) {
	seen := make(map[*Node[T]]bool)
	var walk func(level []*Node[T])
	walk = func(level []*Node[T]) {
		for _, n := range level {
			if seen[n] {
				continue
			}
			seen[n] = true
			fn(n)
			walk(n.Children)
		}
	}
	walk(nodes)
}

// SubtreeIDs 返回 id 自身及其全部后代的 id
func SubtreeIDs[T Record](records []T, id uint) []uint {
	nodes, _ := Build(records, Traversal, &id)
	ids := []uint{id}
	seen := map[uint]bool{id: true}
	Walk(nodes, func(n *Node[T]) {
		if nid := n.Item.TreeID(); !seen[nid] {
			seen[nid] = true
			ids = append(ids, nid)
		}
	})
	return ids
}
