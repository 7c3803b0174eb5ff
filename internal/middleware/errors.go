package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/prudhivi99/Distributed-Systems/tableorder/internal/apperr"
)

type errorBody struct {
	Code    string            `json:"code"`
	Kind    apperr.Kind       `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RespondError writes err as {"error": {...}} and aborts the chain.
// Unclassified errors are logged and reported as a generic 500.
func RespondError(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.WithFields(log.Fields{
			"path":  c.FullPath(),
			"error": err,
		}).Error("unhandled error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errorBody{
			Code:    apperr.CodeInternal,
			Kind:    apperr.KindInternal,
			Message: "something went wrong, please try again",
		}})
		return
	}

	status := apperr.HTTPStatus(e.Kind)
	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.FullPath(),
			"kind":  e.Kind,
			"error": err,
		}).Error("request failed")
	}

	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		Fields:  e.Fields,
	}})
}
