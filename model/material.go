package model

import (
	"net/url"
	"path"
	"strings"
)

// Material is a file attached to a module.
type Material struct {
	ID          string `json:"id"`
	ModuleID    string `json:"module_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FileURL     string `json:"file_url"`
	FileName    string `json:"file_name"`
	FileType    string `json:"file_type"`
	FileSize    int64  `json:"file_size"` // bytes
	UploadedBy  string `json:"uploaded_by"`
	CreatedAt   int64  `json:"created_at"` // epoch ms, 0 when unknown
	UpdatedAt   int64  `json:"updated_at"`
}

// MaterialModuleKeys are the field names that have held a material's module
// id.
var MaterialModuleKeys = []string{"moduleId", "module_id"}

// AdaptMaterial maps a raw material document onto Material, reconciling
// the legacy field names (name, size, uploadedAt).
func AdaptMaterial(r Record, id string) Material {
	m := Material{
		ID:          id,
		ModuleID:    stringField(r, MaterialModuleKeys...),
		Title:       stringField(r, "title", "name"),
		Description: stringField(r, "description"),
		FileURL:     stringField(r, "fileUrl", "url", "file_url"),
		FileName:    stringField(r, "fileName", "file_name", "name"),
		FileType:    stringField(r, "fileType", "mimeType", "type"),
		FileSize:    intField(r, "fileSize", "size"),
		UploadedBy:  stringField(r, "uploadedBy", "uploaded_by"),
		CreatedAt:   instantField(r, "createdAt", "uploadedAt"),
		UpdatedAt:   instantField(r, "updatedAt"),
	}
	if m.FileName == "" {
		m.FileName = fileNameFromURL(m.FileURL)
	}
	if m.Title == "" {
		m.Title = m.FileName
	}
	if m.UpdatedAt == 0 {
		m.UpdatedAt = m.CreatedAt
	}
	return m
}

// fileNameFromURL returns the last path segment of a URL or bucket key.
func fileNameFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
