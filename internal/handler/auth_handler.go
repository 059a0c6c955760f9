// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strings"

	"lexaid-go/internal/apperr"
	"lexaid-go/internal/model"
	"lexaid-go/internal/service"
	"lexaid-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AuthHandler 负责处理所有与认证和用户相关的 API 请求。
type AuthHandler struct {
	userService service.UserService
}

// NewAuthHandler 创建一个新的 AuthHandler 实例。
func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// publicUser 返回可以对外暴露的用户字段。
func publicUser(u *model.User) gin.H {
	return gin.H{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
	}
}

// RegisterRequest 定义了用户注册 API 的请求体结构。
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 处理用户注册请求。
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	// 绑定并验证 JSON 请求体
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Register: invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	// 调用 service 层执行注册逻辑
	user, tokenString, err := h.userService.Register(req.Name, req.Email, req.Password)
	if err != nil {
		log.Warnf("Register: registration failed for '%s', error: %v", req.Email, err)
		c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{"error": apperr.ClientMessage(err)})
		return
	}

	log.Infof("User '%s' registered successfully", user.Email)
	c.JSON(http.StatusCreated, gin.H{
		"token": tokenString,
		"user":  publicUser(user),
	})
}

// LoginRequest 定义了用户登录 API 的请求体结构。
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 处理用户登录请求。
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Login: invalid request payload, error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	// 调用 service 层执行登录逻辑
	user, tokenString, err := h.userService.Login(req.Email, req.Password)
	if err != nil {
		log.Warnf("Login: authentication failed for '%s', error: %v", req.Email, err)
		c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{"error": apperr.ClientMessage(err)})
		return
	}

	log.Infof("User '%s' logged in successfully", user.Email)
	c.JSON(http.StatusOK, gin.H{
		"token": tokenString,
		"user":  publicUser(user),
	})
}

// GetMe 获取当前登录用户的公开信息。
// 用户信息已经由 AuthMiddleware 注入到上下文中。
func (h *AuthHandler) GetMe(c *gin.Context) {
	userValue, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is not valid"})
		return
	}
	user, ok := userValue.(*model.User)
	if !ok || user == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": publicUser(user)})
}

// Logout 处理用户登出请求，将当前 token 加入黑名单。
func (h *AuthHandler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	if err := h.userService.Logout(tokenString); err != nil {
		log.Error("Logout: failed to logout", err)
		c.JSON(apperr.HTTPStatus(apperr.KindOf(err)), gin.H{"error": apperr.ClientMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
