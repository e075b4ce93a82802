package media

import (
	"context"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Upload is the subset of the Cloudinary upload response the handlers persist.
type Upload struct {
	URL          string `json:"url"`
	PublicID     string `json:"publicId"`
	ResourceType string `json:"resourceType"`
}

// Client wraps a Cloudinary account handle; constructed once in main and
// passed to the admin handlers.
type Client struct {
	cld *cloudinary.Cloudinary
}

func New(cloudinaryURL string) (*Client, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &Client{cld: cld}, nil
}

// UploadFile pushes a multipart file into the given folder. ResourceType
// "auto" lets Cloudinary detect images vs. banner videos.
func (c *Client) UploadFile(ctx context.Context, file multipart.File, folder string) (*Upload, error) {
	result, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto",
	})
	if err != nil {
		return nil, err
	}
	return &Upload{
		URL:          result.SecureURL,
		PublicID:     result.PublicID,
		ResourceType: result.ResourceType,
	}, nil
}

// Destroy removes an uploaded asset. Missing assets are not an error on the
// Cloudinary side, so callers can treat this as best-effort cleanup.
func (c *Client) Destroy(ctx context.Context, publicID, resourceType string) error {
	if publicID == "" {
		return nil
	}
	if resourceType == "" {
		resourceType = "image"
	}
	_, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	return err
}
