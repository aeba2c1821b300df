package port

import (
	"context"
	"io"
)

// UploadInput describes one object to store. Keys follow the payops layout:
//
//	invoices/<invoice id>/pdf/<uuid>.pdf       replacement invoice PDFs
//	notes/<note id>/<attachment id>.<ext>      note attachments
//	payment-reports/<session id>/<name>.<ext>  raw payment report uploads
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// UploadOutput is where the object ended up.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage keeps invoice PDFs, note attachments and raw report files. Attachment
// previews are served through presigned URLs.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	// Delete removes an object; callers use it to drop uploads whose database write failed.
	Delete(ctx context.Context, bucket, key string) error
	GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error)
}
