package utils_test

import (
	"strings"
	"testing"

	"github.com/autopub/publish-gin/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSanitizeString 测试 HTML 转义和控制字符过滤
func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", utils.SanitizeString("<script>alert(1)</script>"))
	assert.Equal(t, "hello\nworld\ttab", utils.SanitizeString("hello\nworld\ttab"))
	assert.Equal(t, "abc", utils.SanitizeString("a\x00b\x1bc"))
	assert.Equal(t, "", utils.SanitizeString(""))
}

// TestValidateTaskID 测试任务 ID 校验
func TestValidateTaskID(t *testing.T) {
	assert.NoError(t, utils.ValidateTaskID("task-123_ABC"))
	assert.Equal(t, utils.ErrEmptyID, utils.ValidateTaskID(""))
	assert.Equal(t, utils.ErrInvalidIDFormat, utils.ValidateTaskID("task/123"))
	assert.Equal(t, utils.ErrInvalidIDFormat, utils.ValidateTaskID("任务"))
	assert.Equal(t, utils.ErrIDTooLong, utils.ValidateTaskID(strings.Repeat("a", 65)))
}

// TestValidatePlatformID 测试平台标识校验
func TestValidatePlatformID(t *testing.T) {
	assert.NoError(t, utils.ValidatePlatformID("csdn"))
	assert.NoError(t, utils.ValidatePlatformID("some-platform_2"))
	assert.Equal(t, utils.ErrEmptyID, utils.ValidatePlatformID(""))
	assert.Equal(t, utils.ErrInvalidIDFormat, utils.ValidatePlatformID("CSDN"))
	assert.Equal(t, utils.ErrInvalidIDFormat, utils.ValidatePlatformID("-csdn"))
	assert.Equal(t, utils.ErrIDTooLong, utils.ValidatePlatformID(strings.Repeat("a", 33)))
}

// TestValidateTitle 测试标题校验
func TestValidateTitle(t *testing.T) {
	assert.NoError(t, utils.ValidateTitle("一篇文章"))
	assert.Equal(t, utils.ErrEmptyString, utils.ValidateTitle("   "))
	assert.Equal(t, utils.ErrStringTooLong, utils.ValidateTitle(strings.Repeat("a", 256)))
}

// TestTrimAndValidate 测试清理加校验组合
func TestTrimAndValidate(t *testing.T) {
	got, err := utils.TrimAndValidate("  hello <b>  ", 100)
	require.NoError(t, err)
	assert.Equal(t, "hello &lt;b&gt;", got)

	_, err = utils.TrimAndValidate("  ", 100)
	assert.Equal(t, utils.ErrEmptyString, err)

	_, err = utils.TrimAndValidate("toolong", 3)
	assert.Equal(t, utils.ErrStringTooLong, err)

	// maxLen 为 0 时不限长
	_, err = utils.TrimAndValidate(strings.Repeat("a", 1000), 0)
	assert.NoError(t, err)
}
