package httpserver

import (
	"fmt"
	"strings"

	"github.com/Skotchmaster/orbitdine/internal/models"
)

const ticketWidth = 32

type PrintResponse struct {
	models.OrderDetail
	Ticket string `json:"ticket"`
}

func money(minor int64) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func ticketLine(left, right string) string {
	pad := ticketWidth - len(left) - len(right)
	if pad < 1 {
		pad = 1
	}
	return left + strings.Repeat(" ", pad) + right + "\n"
}

// Ticket renders the kitchen slip for an order.
func Ticket(o models.OrderDetail) string {
	var b strings.Builder
	rule := strings.Repeat("-", ticketWidth) + "\n"

	b.WriteString(ticketLine(fmt.Sprintf("ORDER #%d", o.ID), fmt.Sprintf("TABLE %d", o.TableNumber)))
	b.WriteString(ticketLine(o.CustomerName, o.CreatedAt.Format("2006-01-02 15:04")))
	b.WriteString(rule)
	for _, it := range o.Items {
		name := it.Name
		if name == "" {
			name = fmt.Sprintf("item %d", it.MenuItemID)
		}
		b.WriteString(ticketLine(fmt.Sprintf("%d x %s", it.Quantity, name), money(it.Price*int64(it.Quantity))))
		if it.Notes != "" {
			b.WriteString("   * " + it.Notes + "\n")
		}
	}
	b.WriteString(rule)
	b.WriteString(ticketLine("TOTAL", money(o.TotalAmount)))
	return b.String()
}
