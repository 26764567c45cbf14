package crm

import (
	"github.com/shopspring/decimal"

	"github.com/erp/posbridge/internal/domain/catalogsync"
	"github.com/erp/posbridge/internal/domain/salesync"
)

// page is the CRM pagination envelope
type page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

type productDTO struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Barcode    string          `json:"barcode"`
	Price      decimal.Decimal `json:"price"`
	HasOffers  bool            `json:"has_offers"`
	CategoryID *int64          `json:"category_id"`
}

func (p productDTO) toDomain() catalogsync.Product {
	return catalogsync.Product{
		ID:         p.ID,
		Name:       p.Name,
		SKU:        p.SKU,
		Barcode:    p.Barcode,
		Price:      p.Price,
		HasOffers:  p.HasOffers,
		CategoryID: p.CategoryID,
	}
}

type propertyDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type offerDTO struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Barcode    string          `json:"barcode"`
	Price      decimal.Decimal `json:"price"`
	Properties []propertyDTO   `json:"properties"`
}

func (o offerDTO) toDomain() catalogsync.Offer {
	props := make([]catalogsync.Property, 0, len(o.Properties))
	for _, p := range o.Properties {
		props = append(props, catalogsync.Property{Name: p.Name, Value: p.Value})
	}
	return catalogsync.Offer{
		ID:         o.ID,
		ProductID:  o.ProductID,
		Name:       o.Name,
		SKU:        o.SKU,
		Barcode:    o.Barcode,
		Price:      o.Price,
		Properties: props,
	}
}

type categoryDTO struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

// ReferenceItem is one entry of a CRM reference list (payment methods,
// order statuses, order sources)
type ReferenceItem struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

type buyerDTO struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

type orderProductDTO struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

type orderPaymentDTO struct {
	PaymentMethodID int64   `json:"payment_method_id"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description,omitempty"`
	Status          string  `json:"status"`
}

type orderRequestDTO struct {
	SourceUUID     string            `json:"source_uuid"`
	SourceID       int64             `json:"source_id,omitempty"`
	Buyer          buyerDTO          `json:"buyer"`
	OrderedAt      string            `json:"ordered_at"`
	Products       []orderProductDTO `json:"products"`
	Payments       []orderPaymentDTO `json:"payments,omitempty"`
	ManagerComment string            `json:"manager_comment,omitempty"`
}

func newOrderRequestDTO(req salesync.OrderRequest) orderRequestDTO {
	products := make([]orderProductDTO, 0, len(req.Products))
	for _, p := range req.Products {
		products = append(products, orderProductDTO{
			SKU:      p.SKU,
			Name:     p.Name,
			Price:    p.Price.InexactFloat64(),
			Quantity: p.Quantity.InexactFloat64(),
		})
	}
	payments := make([]orderPaymentDTO, 0, len(req.Payments))
	for _, p := range req.Payments {
		payments = append(payments, orderPaymentDTO{
			PaymentMethodID: p.PaymentMethodID,
			Amount:          p.Amount.InexactFloat64(),
			Description:     p.Description,
			Status:          "paid",
		})
	}
	return orderRequestDTO{
		SourceUUID: req.SourceUUID,
		SourceID:   req.SourceID,
		Buyer: buyerDTO{
			FullName: req.Buyer.FullName,
			Phone:    req.Buyer.Phone,
			Email:    req.Buyer.Email,
		},
		OrderedAt:      req.OrderedAt,
		Products:       products,
		Payments:       payments,
		ManagerComment: req.ManagerComment,
	}
}

type orderUpdateDTO struct {
	StatusID int64 `json:"status_id,omitempty"`
	ClientID int64 `json:"client_id,omitempty"`
}

type createdOrderDTO struct {
	ID int64 `json:"id"`
}
