// Package response 统一 HTTP 响应格式与错误分类到状态码的映射
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/cashflow/pkg/errs"
)

// OK 返回 200 与数据
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Created 返回 201 与数据
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// Error 按错误分类映射状态码：校验 400、不存在 404、下游不可用 502，其余 500
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsValidation(err):
		status = http.StatusBadRequest
	case errs.IsNotFound(err):
		status = http.StatusNotFound
	case errs.IsUpstream(err):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
