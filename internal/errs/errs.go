// Package errs 定义了跨层共享的错误哨兵。
package errs

import "errors"

// ErrPrecondition 表示请求在任何处理开始前就被拒绝（参数缺失、类型不允许、超出大小限制等）。
var ErrPrecondition = errors.New("precondition violation")

// ErrUpstream 表示对外部托管服务（向量库、Embedding、LLM、数字人）的一次调用失败。
// 本系统不做自动重试，单次上游失败即整个操作失败。
var ErrUpstream = errors.New("upstream error")
