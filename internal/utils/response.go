package utils

import (
	"github.com/labstack/echo/v4"
)

const (
	ResultSuccess = "success"
	ResultFail    = "fail"
)

// Envelope wraps every JSON response of the API.
type Envelope struct {
	Result    string      `json:"result"`
	ResultMsg string      `json:"result_msg"`
	Response  interface{} `json:"response"`
}

// FailBody is the response payload of a failed request.
type FailBody struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
}

// JSONSuccess writes a success envelope.
func JSONSuccess(c echo.Context, status int, msg string, response interface{}) error {
	return c.JSON(status, Envelope{Result: ResultSuccess, ResultMsg: msg, Response: response})
}

// JSONFail writes a fail envelope whose payload repeats the HTTP status.
func JSONFail(c echo.Context, status int, msg, code string) error {
	return c.JSON(status, Envelope{
		Result:    ResultFail,
		ResultMsg: msg,
		Response:  FailBody{StatusCode: status, ErrorCode: code},
	})
}
