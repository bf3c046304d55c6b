package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"billdesk/internal/services"

	"github.com/labstack/echo/v4"
)

// MaxUploadSize caps every uploaded image.
const MaxUploadSize = 5 << 20

var errUploadTooLarge = fmt.Errorf("file exceeds %d MB", MaxUploadSize>>20)

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// formUpload reads the named multipart file into memory. A missing file
// yields nil, nil.
func formUpload(c echo.Context, field string) (*services.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	return readUpload(header)
}

func readUpload(header *multipart.FileHeader) (*services.Upload, error) {
	if header.Size > MaxUploadSize {
		return nil, errUploadTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxUploadSize {
		return nil, errUploadTooLarge
	}

	contentType := header.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &services.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
	}, nil
}
