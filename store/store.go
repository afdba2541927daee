// Package store 提供 core.Store 的实现：内存（测试/单进程）与 Redis（多实例共享模型产物）。
package store

import "github.com/rushteam/nearbite/core"

// ErrNotFound 是 core.ErrStoreNotFound 的别名
var ErrNotFound = core.ErrStoreNotFound
