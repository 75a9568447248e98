package reports

import (
	"fmt"
	"html"
	"strings"

	"github.com/vitrine-pos/vitrine-pos/internal/catalog/products"
	"github.com/vitrine-pos/vitrine-pos/internal/sales"
)

const pageStyle = `<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; margin: 24px; }
h1 { font-size: 18px; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 4px 6px; text-align: left; }
th { background: #eee; }
</style>`

func buildTable(title string, header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\">")
	b.WriteString(pageStyle)
	b.WriteString("</head><body><h1>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</h1><table><thead><tr>")
	for _, h := range header {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(h))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}

// BuildSalesHTML renders the sales report as a printable HTML page.
func BuildSalesHTML(views []sales.SaleView) string {
	header := []string{"Data", "Vendedor", "Pagamento", "Presente", "Itens", "Total", "Desconto", "Subtotal"}
	rows := make([][]string, 0, len(views))
	for _, view := range views {
		var itemParts []string
		for _, item := range view.Items {
			itemParts = append(itemParts, fmt.Sprintf("%s (%s) x%d", item.ProductName, item.SizeLabel, item.Quantity))
		}
		rows = append(rows, []string{
			view.Timestamp.Format("02/01/2006 15:04"),
			view.UserName,
			string(view.PaymentMethod),
			boolLabel(view.Gift),
			strings.Join(itemParts, ", "),
			formatMoney(view.TotalAmount),
			formatMoney(view.Discount),
			formatMoney(view.Subtotal),
		})
	}
	return buildTable("Relatório de Vendas", header, rows)
}

// BuildProductsHTML renders the product report as a printable HTML page.
func BuildProductsHTML(list []products.Product, withProfit bool) string {
	header := []string{"Nome", "Preço", "Custo", "Estoque", "Vendidos", "Excluído"}
	if withProfit {
		header = append(header, "Lucro")
	}
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		row := []string{
			p.Name,
			formatMoney(p.Price),
			formatMoney(p.Cost),
			fmt.Sprintf("%d", p.Quantity),
			fmt.Sprintf("%d", p.QuantitySold),
			boolLabel(p.DeletedAt != nil),
		}
		if withProfit {
			row = append(row, formatMoney(p.Price-p.Cost))
		}
		rows = append(rows, row)
	}
	return buildTable("Relatório de Produtos", header, rows)
}
