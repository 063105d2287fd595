// Package apperr 定义了核心业务的错误分类。
// 服务层只返回带分类的结构化错误，由 handler 层统一映射为 HTTP 状态码；
// 底层存储错误一律包装为 KindInternal，不把原始错误暴露给调用方。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 标识错误的业务类别。
type Kind string

const (
	// KindNotFound 表示实体不存在，或不在调用方的工作区可见范围内。
	KindNotFound Kind = "NOT_FOUND"
	// KindDepthExceeded 表示位置树的深度超出上限。
	KindDepthExceeded Kind = "DEPTH_EXCEEDED"
	// KindCycleDetected 表示移动会让位置成为自己的后代。
	KindCycleDetected Kind = "CYCLE_DETECTED"
	// KindWorkspaceMismatch 表示引用了其他工作区的实体。
	KindWorkspaceMismatch Kind = "WORKSPACE_MISMATCH"
	// KindConflict 表示当前状态下不允许该转换，例如二维码已绑定到别的箱子。
	KindConflict Kind = "CONFLICT"
	// KindInvalidInput 表示调用方的输入或调用顺序有误。
	KindInvalidInput Kind = "INVALID_INPUT"
	// KindMintExhausted 表示短标识符碰撞重试次数用尽。
	// 这个长度下碰撞概率微乎其微，重试耗尽说明键空间接近饱和等更深层的问题。
	KindMintExhausted Kind = "MINT_EXHAUSTED"
	// KindInternal 表示底层存储或基础设施错误。
	KindInternal Kind = "INTERNAL"
)

// Error 是服务层返回的结构化错误。
// Entity/ID 给调用方足够的上下文来生成精确的提示信息。
type Error struct {
	Kind   Kind
	Entity string
	ID     string
	Op     string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.ID != "" {
		return fmt.Sprintf("%s: %s %s", e.Kind, e.Entity, e.ID)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound 构造一个实体不存在错误。
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id}
}

// DepthExceeded 构造一个树深度超限错误。
func DepthExceeded(id string, depth int) *Error {
	return &Error{Kind: KindDepthExceeded, Entity: "location", ID: id, Msg: fmt.Sprintf("位置树深度 %d 超出上限", depth)}
}

// CycleDetected 构造一个成环错误。
func CycleDetected(id string) *Error {
	return &Error{Kind: KindCycleDetected, Entity: "location", ID: id, Msg: "位置不能移动到自己或自己的后代之下"}
}

// WorkspaceMismatch 构造一个跨工作区引用错误。
func WorkspaceMismatch(entity, id string) *Error {
	return &Error{Kind: KindWorkspaceMismatch, Entity: entity, ID: id, Msg: "引用的实体属于其他工作区"}
}

// Conflict 构造一个状态冲突错误。
func Conflict(entity, id, msg string) *Error {
	return &Error{Kind: KindConflict, Entity: entity, ID: id, Msg: msg}
}

// InvalidInput 构造一个输入错误。
func InvalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Msg: msg}
}

// MintExhausted 构造一个铸号重试耗尽错误。
func MintExhausted(entity string) *Error {
	return &Error{Kind: KindMintExhausted, Entity: entity, Msg: "短标识符碰撞重试次数用尽"}
}

// Internal 把底层错误包装为内部错误，op 是发生错误的操作名。
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf 返回错误的业务类别；非 apperr 错误一律视为 KindInternal。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind 判断错误是否属于指定类别。
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus 把错误类别映射为 HTTP 状态码。
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindDepthExceeded, KindCycleDetected, KindInvalidInput:
		return http.StatusBadRequest
	case KindWorkspaceMismatch:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
