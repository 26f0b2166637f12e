// Package service 包含了应用的业务逻辑层。
package service

import "errors"

// 业务层的哨兵错误，handler 据此映射为对应的 HTTP 状态码。
var (
	// ErrNotFound 表示请求的资源不存在。
	ErrNotFound = errors.New("resource not found")
	// ErrAccessDenied 表示当前用户无权访问该资源。
	ErrAccessDenied = errors.New("access denied")
	// ErrInvalidCredentials 表示用户名或密码错误。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken 表示用户名已被注册。
	ErrUsernameTaken = errors.New("username already taken")
)
