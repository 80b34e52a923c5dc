package api

import (
	"path/filepath"

	"github.com/valponomarev/ImageViewer/internal/core"
)

type RetryRequest struct {
	ID string `json:"id" binding:"required"`
}

type RecordResponse struct {
	ID     string `json:"id"`
	Failed bool   `json:"failed"`

	PreviewPath *string `json:"preview_path,omitempty"`
	OriginPath  *string `json:"origin_path,omitempty"`

	// blob-serving URLs derived from the cached filenames
	PreviewURL string `json:"preview_url,omitempty"`
	OriginURL  string `json:"origin_url,omitempty"`
}

type RecordListResponse struct {
	Images []*RecordResponse `json:"images"`
}

type StatusResponse struct {
	ManifestCached   bool `json:"manifest_cached"`
	NetworkAvailable bool `json:"network_available"`
}

func NewRecordResponse(rec *core.ImageRecord) *RecordResponse {
	if rec == nil {
		return nil
	}

	resp := &RecordResponse{
		ID:          rec.ID,
		Failed:      rec.Failed(),
		PreviewPath: rec.PreviewPath,
		OriginPath:  rec.OriginPath,
	}
	if rec.PreviewPath != nil {
		resp.PreviewURL = "/blobs/" + filepath.Base(*rec.PreviewPath)
	}
	if rec.OriginPath != nil {
		resp.OriginURL = "/blobs/" + filepath.Base(*rec.OriginPath)
	}
	return resp
}

func NewRecordListResponse(recs []*core.ImageRecord) *RecordListResponse {
	resp := &RecordListResponse{
		Images: make([]*RecordResponse, 0, len(recs)),
	}
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		resp.Images = append(resp.Images, NewRecordResponse(rec))
	}
	return resp
}
