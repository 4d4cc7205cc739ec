package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"taskflow/internal/repositories"
	"taskflow/internal/services"
)

type detailItem struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// bindError replies 422 with one detail item per failed field.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []detailItem{{Loc: []string{"body"}, Msg: err.Error()}}})
		return
	}
	items := make([]detailItem, 0, len(verrs))
	for _, fe := range verrs {
		items = append(items, detailItem{
			Loc: []string{"body", fe.Field()},
			Msg: fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()),
		})
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": items})
}

// respondError maps service and repository errors to a status and a
// {"detail"} body.
func respondError(c *gin.Context, logger *slog.Logger, op string, err error, notFound string) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": notFound})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
	case errors.Is(err, services.ErrUserExists):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Email or username already registered"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
	case errors.Is(err, services.ErrInactiveUser):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Inactive user"})
	default:
		logger.Error("["+op+"][err]", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "invalid " + name})
		return 0, false
	}
	return id, true
}
