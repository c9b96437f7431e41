package shared

import (
	"strings"

	"github.com/polbel-next/internal/service"
)

// CaptchaPayloadRequest 验证码请求载荷。
type CaptchaPayloadRequest struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// ToServicePayload 转换为 service 层验证码载荷。
func (r CaptchaPayloadRequest) ToServicePayload() service.CaptchaVerifyPayload {
	return service.CaptchaVerifyPayload{
		CaptchaID:   strings.TrimSpace(r.CaptchaID),
		CaptchaCode: strings.TrimSpace(r.CaptchaCode),
	}
}

// CaptchaPayloadFromRecord 从实体提交体中取出验证码字段
func CaptchaPayloadFromRecord(record map[string]interface{}) CaptchaPayloadRequest {
	id, _ := record["captcha_id"].(string)
	code, _ := record["captcha_code"].(string)
	return CaptchaPayloadRequest{CaptchaID: id, CaptchaCode: code}
}
