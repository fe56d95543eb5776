package admin

import (
	handlershared "github.com/vietcart-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "admin_id", "error.unauthorized", "error.internal")
}
