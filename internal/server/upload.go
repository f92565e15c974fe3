package server

import (
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"texkit/internal/orm"
	"texkit/internal/texture"
)

// memoryLimit is how much of a multipart body is kept in memory before
// spilling to temporary files.
const memoryLimit = 32 << 20

// upload wraps a parsed multipart request. Saved files live in a private
// temporary directory removed by cleanup.
type upload struct {
	r   *http.Request
	dir string
}

func newUpload(r *http.Request) (*upload, error) {
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return &upload{r: r}, nil
}

func (u *upload) cleanup() {
	if u.dir != "" {
		os.RemoveAll(u.dir)
	}
	if u.r.MultipartForm != nil {
		u.r.MultipartForm.RemoveAll()
	}
}

// file returns the header for field after checking its extension. A missing
// field yields (nil, nil).
func (u *upload) file(field string) (*multipart.FileHeader, error) {
	if u.r.MultipartForm == nil {
		return nil, nil
	}
	files := u.r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	if err := texture.ValidateExtension(fh.Filename); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return fh, nil
}

// save writes the uploaded field to disk, keeping its base name, and returns
// the path. A missing field yields "".
func (u *upload) save(field string) (string, error) {
	fh, err := u.file(field)
	if err != nil || fh == nil {
		return "", err
	}

	if u.dir == "" {
		if u.dir, err = os.MkdirTemp("", "texkit-upload-*"); err != nil {
			return "", fmt.Errorf("server: temp dir: %w", err)
		}
	}
	dir := filepath.Join(u.dir, field)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("server: temp dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(fh.Filename))

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("server: open %s: %w", field, err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("server: save %s: %w", field, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("server: save %s: %w", field, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("server: save %s: %w", field, err)
	}
	return path, nil
}

// image decodes the uploaded field. A missing field yields (nil, nil).
func (u *upload) image(field string) (*image.NRGBA, error) {
	fh, err := u.file(field)
	if err != nil || fh == nil {
		return nil, err
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("server: open %s: %w", field, err)
	}
	defer src.Close()

	img, err := texture.Decode(src, fh.Filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return img, nil
}

func (u *upload) value(key string) string {
	return u.r.FormValue(key)
}

func (u *upload) intField(key string, def, min, max int) (int, error) {
	v := u.value(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %s", errBadRequest, key, v)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%w: %s must be between %d and %d, got: %d", errBadRequest, key, min, max, n)
	}
	return n, nil
}

func (u *upload) floatField(key string, def, min, max float64) (float64, error) {
	v := u.value(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s: %s", errBadRequest, key, v)
	}
	if f < min || f > max {
		return 0, fmt.Errorf("%w: %s must be between %g and %g, got: %g", errBadRequest, key, min, max, f)
	}
	return f, nil
}

// boolField accepts the checkbox value "on" as well as strconv booleans.
func (u *upload) boolField(key string, def bool) (bool, error) {
	v := u.value(key)
	switch v {
	case "":
		return def, nil
	case "on":
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: invalid %s: %s", errBadRequest, key, v)
	}
	return b, nil
}

// override reads a slider field; an empty field leaves the override off.
func (u *upload) override(key string) (orm.Override, error) {
	if u.value(key) == "" {
		return orm.Override{}, nil
	}
	v, err := u.intField(key, 0, 0, 255)
	if err != nil {
		return orm.Override{}, err
	}
	return orm.Override{Enabled: true, Value: uint8(v)}, nil
}
