// Package shortid 提供短标识符的随机生成。
// 候选值由加密安全的随机源产生，全局唯一性由数据库唯一索引保证，
// 这里只负责"抽签"本身。
package shortid

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// 大写字母加数字的字母表。去掉小写是为了打印在标签上之后
// 人工誊写时不出歧义。
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	// BoxIDLength 是箱子短标识符的长度。
	BoxIDLength = 10
	// CodeBodyLength 是二维码短标识符去掉前缀后的长度。
	CodeBodyLength = 6
	// CodePrefix 是二维码短标识符的固定前缀。
	// 打印出的标签和扫码解析都依赖这个格式完全一致。
	CodePrefix = "QR-"
)

// NewBoxID 生成一个箱子短标识符候选值，例如 "7KQ2M9XVBD"。
func NewBoxID() (string, error) {
	return gonanoid.Generate(alphabet, BoxIDLength)
}

// NewCodeID 生成一个二维码短标识符候选值，例如 "QR-A1B2C3"。
func NewCodeID() (string, error) {
	body, err := gonanoid.Generate(alphabet, CodeBodyLength)
	if err != nil {
		return "", err
	}
	return CodePrefix + body, nil
}
