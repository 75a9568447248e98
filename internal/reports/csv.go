package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/vitrine-pos/vitrine-pos/internal/catalog/products"
	"github.com/vitrine-pos/vitrine-pos/internal/sales"
)

// csvSeparator keeps the files readable in pt-BR Excel locales, where the
// comma is the decimal separator.
const csvSeparator = ';'

func boolLabel(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}

// WriteSalesCSV renders sale views as a semicolon-separated CSV.
func WriteSalesCSV(w io.Writer, views []sales.SaleView) error {
	writer := csv.NewWriter(w)
	writer.Comma = csvSeparator

	header := []string{"Data", "Vendedor", "Pagamento", "Presente", "Itens", "Total", "Desconto", "Subtotal", "Observação"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, view := range views {
		var itemParts []string
		for _, item := range view.Items {
			itemParts = append(itemParts, fmt.Sprintf("%s (%s) x%d", item.ProductName, item.SizeLabel, item.Quantity))
		}
		record := []string{
			view.Timestamp.Format("02/01/2006 15:04"),
			view.UserName,
			string(view.PaymentMethod),
			boolLabel(view.Gift),
			strings.Join(itemParts, ", "),
			formatMoney(view.TotalAmount),
			formatMoney(view.Discount),
			formatMoney(view.Subtotal),
			view.Observation,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteProductsCSV renders products as a semicolon-separated CSV. When
// withProfit is set an extra column carries price minus cost.
func WriteProductsCSV(w io.Writer, list []products.Product, withProfit bool) error {
	writer := csv.NewWriter(w)
	writer.Comma = csvSeparator

	header := []string{"Nome", "Preço", "Custo", "Estoque", "Vendidos", "Excluído"}
	if withProfit {
		header = append(header, "Lucro")
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, p := range list {
		record := []string{
			p.Name,
			formatMoney(p.Price),
			formatMoney(p.Cost),
			fmt.Sprintf("%d", p.Quantity),
			fmt.Sprintf("%d", p.QuantitySold),
			boolLabel(p.DeletedAt != nil),
		}
		if withProfit {
			record = append(record, formatMoney(p.Price-p.Cost))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
