package mediacmd

import (
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const (
	ingestMediaMessageType      = "cms.media.ingest"
	deleteAssetMessageType      = "cms.media.delete"
	resumeIncompleteMessageType = "cms.media.resume_incomplete"
)

// IngestMediaCommand uploads an image and starts its derivatives. When Wait
// is set the handler blocks until every breakpoint was attempted.
type IngestMediaCommand struct {
	Filename  string `json:"filename"`
	Data      []byte `json:"-"`
	AltText   string `json:"alt_text,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Thumbnail bool   `json:"thumbnail,omitempty"`
	Wait      bool   `json:"wait,omitempty"`
}

// Type implements command.Message.
func (IngestMediaCommand) Type() string { return ingestMediaMessageType }

// Validate ensures there is content and a usable filename.
func (m IngestMediaCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Data, validation.Required.ErrorObject(
			validation.NewError("cms.media.ingest.data_required", "data is required"),
		)),
		validation.Field(&m.Filename, validation.By(func(value any) error {
			name, _ := value.(string)
			if strings.TrimSpace(name) != "" && filepath.Base(name) != name {
				return validation.NewError("cms.media.ingest.filename_invalid", "filename must not contain directories")
			}
			return nil
		})),
		validation.Field(&m.AltText, validation.RuneLength(0, 300)),
		validation.Field(&m.Caption, validation.RuneLength(0, 600)),
	)
}

// DeleteAssetCommand removes an asset. Force skips the published reference check.
type DeleteAssetCommand struct {
	AssetID uuid.UUID `json:"asset_id"`
	Force   bool      `json:"force,omitempty"`
}

// Type implements command.Message.
func (DeleteAssetCommand) Type() string { return deleteAssetMessageType }

// Validate ensures an asset id was supplied.
func (m DeleteAssetCommand) Validate() error {
	if m.AssetID == uuid.Nil {
		return validation.Errors{
			"asset_id": validation.NewError("cms.media.delete.asset_id_required", "asset_id is required"),
		}
	}
	return nil
}

// ResumeIncompleteCommand resumes unfinished assets older than Grace.
type ResumeIncompleteCommand struct {
	Grace time.Duration `json:"grace"`
}

// Type implements command.Message.
func (ResumeIncompleteCommand) Type() string { return resumeIncompleteMessageType }

// Validate rejects negative grace periods.
func (m ResumeIncompleteCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Grace, validation.Min(time.Duration(0)).ErrorObject(
			validation.NewError("cms.media.resume_incomplete.grace_invalid", "grace must be zero or positive"),
		)),
	)
}
