package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusOnBoard   = "onBoard"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusServed    = "served"
	OrderStatusCanceled  = "canceled"
)

const (
	PaymentModeCash = "Cash"
	PaymentModeCard = "Card"
	PaymentModeUpi  = "Upi"
)

const (
	ServiceTypeDineIn   = "Dine In"
	ServiceTypeTakeAway = "Take Away"
)

// ── Access control (CHECK constrained in DB) ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleCashier = "CASHIER"
)

// ── Menu labels (CHECK constrained in DB) ──

const (
	ItemTypeVeg    = "Veg"
	ItemTypeNonVeg = "Non-Veg"
)
