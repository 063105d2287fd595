package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "winter clothes", Normalize("  Winter   Clothes "))
	assert.Equal(t, "冬装 羽绒服", Normalize("冬装\t羽绒服"))
	assert.Equal(t, "", Normalize("   "))
}

func TestBuildSearchText(t *testing.T) {
	got := BuildSearchText("冬装", "羽绒服和毛衣", []string{"衣物", "冬季"})
	assert.Equal(t, "冬装 羽绒服和毛衣 衣物 冬季", got)

	// 空字段不留多余空白
	assert.Equal(t, "冬装", BuildSearchText("冬装", "", nil))
	assert.Equal(t, "", BuildSearchText("", "", nil))
}
