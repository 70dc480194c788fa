// Package uploads содержит клиент для хранения изображений в Cloudinary:
// загрузку файлов в папку проекта и удаление по публичному идентификатору.
package uploads

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/magabrotheeeer/vivu-travel/internal/config"
)

// UploadResult результат загрузки изображения.
type UploadResult struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Bytes    int    `json:"bytes"`
}

// Client загружает и удаляет изображения в Cloudinary.
type Client struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// New создает новый экземпляр Client.
func New(cfg config.Cloudinary) (*Client, error) {
	const op = "uploads.New"

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.CloudAPIKey, cfg.CloudAPISecret)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Client{
		cld:    cld,
		folder: cfg.UploadFolder,
	}, nil
}

// UploadImage загружает изображение в папку проекта и возвращает
// публичный идентификатор и URL для раздачи.
func (c *Client) UploadImage(ctx context.Context, file io.Reader) (*UploadResult, error) {
	const op = "uploads.UploadImage"

	resp, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:         c.folder,
		UseFilename:    api.Bool(true),
		UniqueFilename: api.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("%s: %s", op, resp.Error.Message)
	}

	return &UploadResult{
		PublicID: resp.PublicID,
		URL:      resp.SecureURL,
		Format:   resp.Format,
		Width:    resp.Width,
		Height:   resp.Height,
		Bytes:    resp.Bytes,
	}, nil
}

// RemoveImage удаляет изображение по публичному идентификатору.
// Идентификаторы вне папки проекта отклоняются.
func (c *Client) RemoveImage(ctx context.Context, publicID string) error {
	const op = "uploads.RemoveImage"

	if !strings.HasPrefix(publicID, c.folder+"/") {
		return fmt.Errorf("%s: public id %q is outside upload folder", op, publicID)
	}

	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("%s: unexpected result %q", op, resp.Result)
	}
	return nil
}
