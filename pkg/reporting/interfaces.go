// Package reporting renders engine results for people and files: go-pretty
// tables on the console, excelize workbooks and indented JSON.
package reporting

// ExcelStyles holds the style IDs registered on a workbook.
type ExcelStyles struct {
	HeaderStyle       int
	CurrencyStyle     int
	PercentStyle      int
	NumberStyle       int
	BaseStyle         int
	RedPercentStyle   int
	GreenPercentStyle int
	DateStyle         int
}
