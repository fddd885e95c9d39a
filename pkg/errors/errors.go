package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：同一课表的同一门课已被其他会话写入
var ErrOptimisticLock = errors.New("选课记录已被其他会话修改，请刷新后重试")
