package public

import (
	handlershared "github.com/vietcart-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getUserID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "user_id", "error.unauthorized", "error.internal")
}
