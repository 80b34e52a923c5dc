package core

import "sort"

// ImageRecord is the persisted metadata row for one image URL.
// ID is the source URL itself and acts as the primary key.
type ImageRecord struct {
	ID          string  `json:"id"`
	PreviewPath *string `json:"preview_path,omitempty"`
	OriginPath  *string `json:"origin_path,omitempty"`
}

func NewRecord(id string, previewPath, originPath string) *ImageRecord {
	return &ImageRecord{
		ID:          id,
		PreviewPath: StringPtr(previewPath),
		OriginPath:  StringPtr(originPath),
	}
}

// NewStubRecord marks a failed acquisition: both paths absent.
func NewStubRecord(id string) *ImageRecord {
	return &ImageRecord{ID: id}
}

// Failed reports whether the record is a stub left by a failed acquisition.
func (r *ImageRecord) Failed() bool {
	return r.PreviewPath == nil && r.OriginPath == nil
}

func (r *ImageRecord) CloneRecord() *ImageRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.PreviewPath != nil {
		p := *r.PreviewPath
		c.PreviewPath = &p
	}
	if r.OriginPath != nil {
		p := *r.OriginPath
		c.OriginPath = &p
	}
	return &c
}

// SortRecords sorts records in-place ascending by ID. List consumers
// rely on this ordering being stable across emissions.
func SortRecords(recs []*ImageRecord) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].ID < recs[j].ID
	})
}

func StringPtr(s string) *string {
	return &s
}
