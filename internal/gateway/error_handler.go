package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/medisur/hmis-go/internal/util"
)

func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var respErr util.ResponseError
		if errors.As(err, &respErr) {
			if jsonErr := c.JSON(respErr.Status, map[string]string{"reason": respErr.Msg}); jsonErr != nil {
				log.Errorw("failed to write json response", "error", jsonErr)
			}
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			if httpErr.Code == http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
			}
			if jsonErr := c.JSON(httpErr.Code, map[string]string{"reason": fmt.Sprintf("%v", httpErr.Message)}); jsonErr != nil {
				log.Errorw("failed to write json response", "error", jsonErr)
			}
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		if jsonErr := c.JSON(http.StatusInternalServerError, map[string]string{"reason": "internal server error"}); jsonErr != nil {
			log.Errorw("failed to write json response", "error", jsonErr)
		}
	}
}
