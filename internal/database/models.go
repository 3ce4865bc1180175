package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Order is a persisted order. Payment-mode-conditional fields are NULL when
// they do not apply to the order's payment mode.
type Order struct {
	ID             uuid.UUID
	TicketID       string
	CustomerName   string
	CustomerMobile string
	Total          pgtype.Numeric
	TotalQty       int32
	PaymentMode    string
	ServiceType    string
	ReceivedCash   pgtype.Numeric
	Balance        pgtype.Numeric
	BankName       pgtype.Text
	CardDigits     pgtype.Text
	Status         string
	OnBoardAt      time.Time
	PreparingAt    pgtype.Timestamptz
	ReadyAt        pgtype.Timestamptz
	ServedAt       pgtype.Timestamptz
	CanceledAt     pgtype.Timestamptz
	CreatedAt      time.Time
}

// OrderItem is a denormalized line-item snapshot. Title, rate and category
// are copied from the menu at order time; later menu edits never touch it.
type OrderItem struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	Title    string
	Category string
	Qty      int32
	Rate     pgtype.Numeric
}

type Category struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	Title       string
	Description pgtype.Text
	CategoryID  pgtype.UUID
	Price       pgtype.Numeric
	ItemType    string
	Active      bool
	CreatedAt   time.Time
}

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	CreatedAt      time.Time
}
