package entity

// Canonical bill statuses
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRefused  = "refused"
)

// Expense types offered by the new bill form
const (
	ExpenseTypeTransport      = "Transports"
	ExpenseTypeRestaurant     = "Restaurants et bars"
	ExpenseTypeHotel          = "Hôtel et logement"
	ExpenseTypeServices       = "Services en ligne"
	ExpenseTypeIT             = "IT et électronique"
	ExpenseTypeEquipment      = "Equipement et matériel"
	ExpenseTypeOfficeSupplies = "Fournitures de bureau"
)

// ExpenseTypes lists the expense types in the order the form presents them
var ExpenseTypes = []string{
	ExpenseTypeTransport,
	ExpenseTypeRestaurant,
	ExpenseTypeHotel,
	ExpenseTypeServices,
	ExpenseTypeIT,
	ExpenseTypeEquipment,
	ExpenseTypeOfficeSupplies,
}

// DefaultPct is the VAT percentage used when the form leaves pct blank or non-numeric
const DefaultPct = 20

// Routes handed to the navigation collaborator
const (
	RouteBills   = "#employee/bills"
	RouteNewBill = "#employee/bill/new"
)
