package http

import (
	"github.com/gin-gonic/gin"
	"github.com/ignatij/logreport/pkg/models"
)

const (
	flashSuccessCookie = "flash_success"
	flashErrorCookie   = "flash_error"
	flashMaxAge        = 60
)

// setFlash stores the outcome for the next index render.
func setFlash(c *gin.Context, out models.Outcome) {
	name := flashErrorCookie
	if out.Success {
		name = flashSuccessCookie
	}
	c.SetCookie(name, out.Message, flashMaxAge, "/", "", false, true)
}

// takeFlash reads and clears both flash cookies.
func takeFlash(c *gin.Context) (success, failure string) {
	for _, name := range []string{flashSuccessCookie, flashErrorCookie} {
		v, err := c.Cookie(name)
		if err != nil || v == "" {
			continue
		}
		c.SetCookie(name, "", -1, "/", "", false, true)
		if name == flashSuccessCookie {
			success = v
		} else {
			failure = v
		}
	}
	return success, failure
}
