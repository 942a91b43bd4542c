package service

import "errors"

// ── 跨模块共用业务错误 ──

var (
	ErrValidation = errors.New("请求字段缺失或格式错误")
	ErrForbidden  = errors.New("无权执行此操作")
)
