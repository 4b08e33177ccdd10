package googlebooks

import (
	"strings"
	"time"

	"github.com/magabrotheeeer/bookflix/internal/models"
)

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string      `json:"id"`
	VolumeInfo *volumeInfo `json:"volumeInfo"`
	AccessInfo accessInfo  `json:"accessInfo"`
}

type volumeInfo struct {
	Title               string   `json:"title"`
	Authors             []string `json:"authors"`
	Description         string   `json:"description"`
	PublishedDate       string   `json:"publishedDate"`
	PageCount           *int     `json:"pageCount"`
	Categories          []string `json:"categories"`
	Language            string   `json:"language"`
	PreviewLink         string   `json:"previewLink"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
	ImageLinks struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

type accessInfo struct {
	PDF  formatAccess `json:"pdf"`
	EPUB formatAccess `json:"epub"`
}

type formatAccess struct {
	IsAvailable  bool   `json:"isAvailable"`
	AcsTokenLink string `json:"acsTokenLink"`
}

func (v volume) toBook() models.Book {
	info := v.VolumeInfo
	authors := "Unknown Author"
	if len(info.Authors) > 0 {
		authors = strings.Join(info.Authors, ", ")
	}

	var isbn string
	for _, id := range info.IndustryIdentifiers {
		if id.Type == "ISBN_13" || id.Type == "ISBN_10" {
			isbn = id.Identifier
			break
		}
	}

	thumb := info.ImageLinks.Thumbnail
	if strings.HasPrefix(thumb, "http://") {
		thumb = "https://" + strings.TrimPrefix(thumb, "http://")
	}

	return models.Book{
		Source:          models.SourceGoogle,
		ExternalID:      v.ID,
		Title:           strings.TrimSpace(info.Title),
		Authors:         authors,
		Description:     info.Description,
		ThumbnailURL:    thumb,
		PreviewLink:     info.PreviewLink,
		PublicationDate: parsePublishedDate(info.PublishedDate),
		ISBN:            isbn,
		PageCount:       info.PageCount,
		Categories:      strings.Join(info.Categories, ", "),
		Language:        info.Language,
	}
}

// parsePublishedDate понимает YYYY, YYYY-MM и YYYY-MM-DD.
func parsePublishedDate(s string) *time.Time {
	var layout string
	switch len(s) {
	case 4:
		layout = "2006"
	case 7:
		layout = "2006-01"
	case 10:
		layout = "2006-01-02"
	default:
		return nil
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return nil
	}
	return &t
}
