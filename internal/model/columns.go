package model

// Canonical input column names.
const (
	ColOrderID         = "Order_ID"
	ColProductName     = "Product_Name"
	ColProductCategory = "Product_Category"
	ColRegion          = "Region"
	ColChannel         = "Sales_Channel"
	ColGenderCategory  = "Gender_Category"
	ColSize            = "Size"
	ColOrderDate       = "Order_Date"
	ColUnitsSold       = "Units_Sold"
	ColUnitPrice       = "Unit_Price"
	ColMRP             = "MRP"
	ColDiscount        = "Discount_Applied"
)

// RequiredColumns must be present in every input header.
var RequiredColumns = []string{
	ColOrderID,
	ColOrderDate,
	ColUnitsSold,
	ColUnitPrice,
	ColMRP,
	ColDiscount,
	ColRegion,
	ColProductCategory,
}

// OptionalColumns are read when present and left empty otherwise.
var OptionalColumns = []string{
	ColProductName,
	ColChannel,
	ColGenderCategory,
	ColSize,
}

// ColumnAliases maps alternative header spellings to canonical names.
// Keys are lowercase.
var ColumnAliases = map[string]string{
	"product_line": ColProductCategory,
	"category":     ColProductCategory,
	"channel":      ColChannel,
	"price":        ColUnitPrice,
	"discount":     ColDiscount,
	"date":         ColOrderDate,
	"units":        ColUnitsSold,
	"quantity":     ColUnitsSold,
	"gender":       ColGenderCategory,
}
