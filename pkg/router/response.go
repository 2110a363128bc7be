package router

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prizeloop/backend/pkg/errorx"
	"github.com/prizeloop/backend/pkg/logger"
)

var (
	errNotSupportedMethod = errorx.New(errorx.BadRequest, "Not supported method")
	errBadRequestBody     = errorx.New(errorx.BadRequest, "Cannot decode the request")
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type statusResponse struct {
	status int
	body   response
}

func newResponse(data any) statusResponse {
	return statusResponse{
		status: http.StatusOK,
		body:   response{Code: 0, Data: data},
	}
}

func newErrorResponse(err error, status int) statusResponse {
	errx := errorx.Error{}
	if errors.As(err, &errx) {
		return statusResponse{
			status: status,
			body:   response{Code: int64(errx.Code), Error: errx.Message},
		}
	}

	return statusResponse{
		status: status,
		body:   response{Code: int64(errorx.Unknown.Code), Error: errorx.Unknown.Message},
	}
}

func writeJSON(w http.ResponseWriter, logger logger.Logger, resp statusResponse) {
	b, err := json.Marshal(resp.body)
	if err != nil {
		logger.Errorf("Cannot marshal the response: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	if _, err := w.Write(b); err != nil {
		logger.Errorf("Cannot write the response: %v", err)
	}
}
