package store

import "github.com/rushteam/itemsim/core"

// 此包只包含实现，接口定义在 core 包（core.Store）。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	defer s.Close()

// ErrNotFound 是 core.ErrStoreNotFound 的别名，便于包内使用。
var ErrNotFound = core.ErrStoreNotFound
