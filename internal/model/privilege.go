package model

// Privilege is a permission carried in bearer token claims.
type Privilege struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

const (
	PrivCatalogView       = "catalog:view"
	PrivCatalogManage     = "catalog:manage"
	PrivCatalogDelete     = "catalog:delete"
	PrivInventoryView     = "inventory:view"
	PrivInventoryAdjust   = "inventory:adjust"
	PrivInventoryReserve  = "inventory:reserve"
	PrivTransactionView   = "transaction:view"
	PrivTransactionCreate = "transaction:create"
)

var DefaultPrivileges = []Privilege{
	// Products, suppliers, locations
	{Code: PrivCatalogView, Name: "View Catalog"},
	{Code: PrivCatalogManage, Name: "Create and Update Catalog"},
	{Code: PrivCatalogDelete, Name: "Permanently Delete Catalog Records"},
	// Ledger
	{Code: PrivInventoryView, Name: "View Inventory"},
	{Code: PrivInventoryAdjust, Name: "Recount Inventory"},
	{Code: PrivInventoryReserve, Name: "Reserve and Release Stock"},
	// Transactions
	{Code: PrivTransactionView, Name: "View Transaction"},
	{Code: PrivTransactionCreate, Name: "Create Transaction"},
}

// PrivilegeCodes returns every known privilege code.
func PrivilegeCodes() []string {
	codes := make([]string, 0, len(DefaultPrivileges))
	for _, p := range DefaultPrivileges {
		codes = append(codes, p.Code)
	}
	return codes
}
