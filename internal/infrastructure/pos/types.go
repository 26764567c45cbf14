package pos

import "github.com/erp/posbridge/internal/domain/catalogsync"

type pageMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// page is the POS pagination envelope
type page[T any] struct {
	Meta    pageMeta `json:"meta"`
	Results []T      `json:"results"`
}

type signInRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type signInResponse struct {
	AccessToken string `json:"access_token"`
}

type cashierDTO struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type goodDTO struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Barcode     string `json:"barcode"`
	GroupID     string `json:"group_id"`
	ExternalRef string `json:"external_ref"`
}

func (g goodDTO) toDomain() catalogsync.Good {
	return catalogsync.Good{
		ID:          g.ID,
		Code:        g.Code,
		Name:        g.Name,
		Price:       g.Price,
		Barcode:     g.Barcode,
		GroupID:     g.GroupID,
		ExternalRef: g.ExternalRef,
	}
}

type groupDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

func (g groupDTO) toDomain() catalogsync.Group {
	return catalogsync.Group{ID: g.ID, Name: g.Name, ParentID: g.ParentID}
}

// Webhook is the POS webhook registration
type Webhook struct {
	URL    string `json:"url"`
	Secret string `json:"secret,omitempty"`
}
