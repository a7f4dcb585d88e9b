package model

// MediaFile 上传的媒体文件（考生照片、考试说明视频等）
// swagger:model MediaFile
type MediaFile struct {
	UUIDBase

	FileName     string `gorm:"size:255;not null" json:"fileName"`
	ContentType  string `gorm:"size:100" json:"contentType"`
	Size         int64  `json:"size"`
	URL          string `gorm:"size:500" json:"url"`
	ThumbnailURL string `gorm:"size:500" json:"thumbnailUrl,omitempty"`
	Purpose      string `gorm:"size:50;index" json:"purpose"`
	UploadedBy   uint   `gorm:"index" json:"uploadedBy"`
}

func (MediaFile) TableName() string {
	return "media_files"
}
