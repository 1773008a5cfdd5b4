package mongo

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/chandruydv805026/my-web/internal/entity"
)

type ProductDocument struct {
	ID        string               `bson:"_id"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Unit      string               `bson:"unit"`
	Image     string               `bson:"img"`
	InStock   bool                 `bson:"in_stock"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

type BannerDocument struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Image     string    `bson:"img"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type UserDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Phone        string    `bson:"phone"`
	Email        string    `bson:"email"`
	EmailLower   string    `bson:"email_lower"`
	Address      string    `bson:"address"`
	Pincode      string    `bson:"pincode"`
	Area         string    `bson:"area"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

type CartDocument struct {
	UserID     string               `bson:"_id"`
	Items      []CartItemDocument   `bson:"items"`
	TotalPrice primitive.Decimal128 `bson:"total_price"`
	UpdatedAt  time.Time            `bson:"updated_at"`
	// ExpiresAt drives the TTL index; nil keeps the cart forever.
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

type CartItemDocument struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Quantity  primitive.Decimal128 `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
	Subtotal  primitive.Decimal128 `bson:"subtotal"`
	Stale     bool                 `bson:"stale,omitempty"`
}

type OrderDocument struct {
	ID              string               `bson:"_id"`
	UserID          string               `bson:"user_id"`
	CustomerName    string               `bson:"customer_name"`
	Phone           string               `bson:"phone"`
	Items           []OrderItemDocument  `bson:"items"`
	TotalAmount     primitive.Decimal128 `bson:"total_amount"`
	DeliveryAddress string               `bson:"delivery_address"`
	PaymentMode     string               `bson:"payment_mode"`
	Status          string               `bson:"status"`
	OrderDate       time.Time            `bson:"order_date"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

type OrderItemDocument struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Quantity  primitive.Decimal128 `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type EventDocument struct {
	ID        string    `bson:"_id"`
	StreamID  string    `bson:"stream_id"`
	Version   int       `bson:"version"`
	EventType string    `bson:"event_type"`
	Payload   string    `bson:"payload"`
	CreatedAt time.Time `bson:"created_at"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		// Decimal128 holds 34 significant digits.
		v, _ = primitive.ParseDecimal128(d.Round(6).String())
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toProductDocument(p *entity.Product) *ProductDocument {
	return &ProductDocument{
		ID:        p.ID,
		Name:      p.Name,
		Price:     toDecimal128(p.Price),
		Unit:      string(p.Unit),
		Image:     p.Image,
		InStock:   p.InStock,
		UpdatedAt: p.UpdatedAt,
	}
}

func toProductEntity(doc *ProductDocument) entity.Product {
	return entity.Product{
		ID:        doc.ID,
		Name:      doc.Name,
		Price:     fromDecimal128(doc.Price),
		Unit:      entity.Unit(doc.Unit),
		Image:     doc.Image,
		InStock:   doc.InStock,
		UpdatedAt: doc.UpdatedAt,
	}
}

func toBannerDocument(b *entity.Banner) *BannerDocument {
	return &BannerDocument{
		ID:        b.ID,
		Title:     b.Title,
		Image:     b.Image,
		Active:    b.Active,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func toBannerEntity(doc *BannerDocument) entity.Banner {
	return entity.Banner{
		ID:        doc.ID,
		Title:     doc.Title,
		Image:     doc.Image,
		Active:    doc.Active,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func toUserDocument(u *entity.User, emailKey string) *UserDocument {
	return &UserDocument{
		ID:           u.ID,
		Name:         u.Name,
		Phone:        u.Phone,
		Email:        u.Email,
		EmailLower:   emailKey,
		Address:      u.Address,
		Pincode:      u.Pincode,
		Area:         u.Area,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func toUserEntity(doc *UserDocument) *entity.User {
	return &entity.User{
		ID:           doc.ID,
		Name:         doc.Name,
		Phone:        doc.Phone,
		Email:        doc.Email,
		Address:      doc.Address,
		Pincode:      doc.Pincode,
		Area:         doc.Area,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}
}

func toCartDocument(c *entity.Cart, expiresAt *time.Time) *CartDocument {
	doc := &CartDocument{
		UserID:     c.UserID,
		TotalPrice: toDecimal128(c.TotalPrice),
		UpdatedAt:  c.UpdatedAt,
		ExpiresAt:  expiresAt,
		Items:      make([]CartItemDocument, len(c.Items)),
	}
	for i, item := range c.Items {
		doc.Items[i] = CartItemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  toDecimal128(item.Quantity),
			Price:     toDecimal128(item.Price),
			Subtotal:  toDecimal128(item.Subtotal),
			Stale:     item.Stale,
		}
	}
	return doc
}

func toCartEntity(doc *CartDocument) *entity.Cart {
	items := make([]entity.CartItem, len(doc.Items))
	for i, item := range doc.Items {
		items[i] = entity.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  fromDecimal128(item.Quantity),
			Price:     fromDecimal128(item.Price),
			Subtotal:  fromDecimal128(item.Subtotal),
			Stale:     item.Stale,
		}
	}
	return &entity.Cart{
		UserID:     doc.UserID,
		Items:      items,
		TotalPrice: fromDecimal128(doc.TotalPrice),
		UpdatedAt:  doc.UpdatedAt,
	}
}

func toOrderDocument(o *entity.Order) *OrderDocument {
	doc := &OrderDocument{
		ID:              o.ID,
		UserID:          o.UserID,
		CustomerName:    o.CustomerName,
		Phone:           o.Phone,
		TotalAmount:     toDecimal128(o.TotalAmount),
		DeliveryAddress: o.DeliveryAddress,
		PaymentMode:     string(o.PaymentMode),
		Status:          string(o.Status),
		OrderDate:       o.OrderDate,
		UpdatedAt:       o.UpdatedAt,
		Items:           make([]OrderItemDocument, len(o.Items)),
	}
	for i, item := range o.Items {
		doc.Items[i] = OrderItemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  toDecimal128(item.Quantity),
			Price:     toDecimal128(item.Price),
		}
	}
	return doc
}

func toOrderEntity(doc *OrderDocument) entity.Order {
	items := make([]entity.OrderItem, len(doc.Items))
	for i, item := range doc.Items {
		items[i] = entity.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  fromDecimal128(item.Quantity),
			Price:     fromDecimal128(item.Price),
		}
	}
	return entity.Order{
		ID:              doc.ID,
		UserID:          doc.UserID,
		CustomerName:    doc.CustomerName,
		Phone:           doc.Phone,
		Items:           items,
		TotalAmount:     fromDecimal128(doc.TotalAmount),
		DeliveryAddress: doc.DeliveryAddress,
		PaymentMode:     entity.PaymentMode(doc.PaymentMode),
		Status:          entity.OrderStatus(doc.Status),
		OrderDate:       doc.OrderDate,
		UpdatedAt:       doc.UpdatedAt,
	}
}
