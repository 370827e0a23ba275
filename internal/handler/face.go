package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/iliyamo/class-booking/internal/face"
	"github.com/iliyamo/class-booking/internal/service"
	"github.com/iliyamo/class-booking/internal/utils"
)

// maxImageBytes caps uploaded images.
const maxImageBytes = 10 << 20

// FaceHandler serves enrollment and identification.
type FaceHandler struct {
	Registry *face.Registry
}

func NewFaceHandler(r *face.Registry) *FaceHandler { return &FaceHandler{Registry: r} }

// upload reads the multipart field "request".
func upload(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile("request")
	if err != nil {
		return nil, "", service.Invalid("multipart field 'request' is required")
	}
	if fh.Size > maxImageBytes {
		return nil, "", service.Invalid("image too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", service.Invalid("could not read upload")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, "", service.Invalid("could not read upload")
	}
	return data, fh.Filename, nil
}

func faceErr(err error) error {
	switch {
	case errors.Is(err, face.ErrDecode):
		return service.Invalid("Could not decode image")
	case errors.Is(err, face.ErrNoContrast):
		return service.Invalid("no face found in image")
	}
	return service.Internal("face store failed", err)
}

// AddFace: POST /v1/face/add_face?name=
func (h *FaceHandler) AddFace(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return badRequest(c, "name is required")
	}
	data, filename, err := upload(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := h.Registry.Enroll(name, data, filename)
	if err != nil {
		return fail(c, faceErr(err))
	}
	return utils.JSONSuccess(c, http.StatusCreated, "Added face '"+name+"' successfully.", echo.Map{"id": id, "name": name})
}

// RecognizeFace: POST /v1/face/recognize_face
func (h *FaceHandler) RecognizeFace(c echo.Context) error {
	data, filename, err := upload(c)
	if err != nil {
		return fail(c, err)
	}
	matches, err := h.Registry.Identify(data, filename)
	if err != nil {
		return fail(c, faceErr(err))
	}
	return utils.JSONSuccess(c, http.StatusOK, "recognized", echo.Map{"recognized_faces": matches})
}
