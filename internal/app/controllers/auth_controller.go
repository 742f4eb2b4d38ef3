package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/app/middleware"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/domain/services/container"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/code"
	"github.com/SnailyCAD/snaily-cadv4-sub004/internal/error/response"
)

// InterfaceAuthController 定义认证控制器接口
type InterfaceAuthController interface {
	Register()
	Login()
	Me()
}

// AuthController 处理身份验证请求
type AuthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAuthController 创建一个新的认证控制器
func NewAuthController(ctx *gin.Context, container *container.ServiceContainer) *AuthController {
	return &AuthController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest 表示登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"dispatcher"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 表示登录响应
type LoginResponse struct {
	Code    int                   `json:"code" example:"0"`
	Message string                `json:"message" example:"success"`
	Data    *services.LoginResult `json:"data"`
}

// HandleAuthFunc 返回一个处理认证请求的Gin处理函数
func HandleAuthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAuthController(ctx, container)

		switch method {
		case "register":
			controller.Register()
		case "login":
			controller.Login()
		case "me":
			controller.Me()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// 1. Register 注册新用户, 第一个用户成为所有者
// @Summary      Register
// @Description  Create an account. The first account becomes the CAD owner.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200  {object}  LoginResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /auth/register [post]
func (c *AuthController) Register() {
	var req LoginRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	authService := c.Container.GetService("auth").(services.InterfaceAuthService)
	result, err := authService.Register(c.Ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, result)
}

// 2. Login 处理用户登录
// @Summary      Login
// @Description  Exchange credentials for a bearer token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200  {object}  LoginResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/login [post]
func (c *AuthController) Login() {
	var req LoginRequest
	if !bindJSON(c.Ctx, &req) {
		return
	}

	authService := c.Container.GetService("auth").(services.InterfaceAuthService)
	result, err := authService.Login(c.Ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, result)
}

// 3. Me 获取当前登录用户
// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Failure      401  {object}  ErrorResponse
// @Router       /user [get]
func (c *AuthController) Me() {
	response.Success(c.Ctx, middleware.CurrentUser(c.Ctx))
}
