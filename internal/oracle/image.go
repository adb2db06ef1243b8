package oracle

import (
	"encoding/base64"
	"fmt"
	"strings"

	"recibo/internal/model"
)

const defaultImageType = "image/jpeg"

// Image is a still frame captured by the client.
type Image struct {
	MIMEType string
	Data     []byte
}

// ParseImage decodes a frame sent as a data URL ("data:image/jpeg;base64,...")
// or as bare base64. An empty or undecodable frame means the capture device
// produced nothing usable.
func ParseImage(s string) (Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Image{}, fmt.Errorf("%w: empty frame", model.ErrCaptureUnavailable)
	}

	mimeType := defaultImageType
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, data, ok := strings.Cut(s, ",")
		if !ok {
			return Image{}, fmt.Errorf("%w: malformed data URL", model.ErrCaptureUnavailable)
		}
		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return Image{}, fmt.Errorf("%w: data URL is not base64 encoded", model.ErrCaptureUnavailable)
		}
		if t := strings.TrimSuffix(meta, ";base64"); t != "" {
			mimeType = t
		}
		payload = data
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: decode frame: %v", model.ErrCaptureUnavailable, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty frame", model.ErrCaptureUnavailable)
	}

	return Image{MIMEType: mimeType, Data: data}, nil
}

// DataURL encodes the image as a base64 data URL.
func (i Image) DataURL() string {
	mimeType := i.MIMEType
	if mimeType == "" {
		mimeType = defaultImageType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}
