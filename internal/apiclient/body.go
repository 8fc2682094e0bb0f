package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
)

const jsonContentType = "application/json"

// Multipart is a multipart/form-data body. The client uses the writer's
// content type, boundary included, instead of the JSON default.
type Multipart struct {
	fields [][2]string
	files  []multipartFile
}

type multipartFile struct {
	field    string
	filename string
	content  []byte
}

// NewMultipart creates an empty multipart body.
func NewMultipart() *Multipart {
	return &Multipart{}
}

// Field adds a form value.
func (m *Multipart) Field(name, value string) *Multipart {
	m.fields = append(m.fields, [2]string{name, value})
	return m
}

// File adds a file part.
func (m *Multipart) File(field, filename string, content []byte) *Multipart {
	m.files = append(m.files, multipartFile{field: field, filename: filename, content: content})
	return m
}

func (m *Multipart) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range m.fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing form field %s: %w", f[0], err)
		}
	}
	for _, f := range m.files {
		part, err := w.CreateFormFile(f.field, f.filename)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file %s: %w", f.field, err)
		}
		if _, err := part.Write(f.content); err != nil {
			return nil, "", fmt.Errorf("writing form file %s: %w", f.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// encodeBody renders the body once, so every replay sends identical bytes.
func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, jsonContentType, nil
	case *Multipart:
		return b.encode()
	case []byte:
		return b, jsonContentType, nil
	case json.RawMessage:
		return b, jsonContentType, nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request body: %w", err)
		}
		return raw, jsonContentType, nil
	}
}
