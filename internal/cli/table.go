package cli

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/nao1215/guardian/internal/guardian"
)

// newTable は罫線なしの表を生成する。
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetBorder(false)
	t.SetHeaderLine(false)
	t.SetColumnSeparator("")
	t.SetTablePadding("  ")
	t.SetNoWhiteSpace(true)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return t
}

// renderWallets はウォレット一覧を表形式で出力する。
func (a *app) renderWallets(wallets []guardian.Wallet) {
	t := newTable(a.out, "ID", "種類", "残高", "保留中", "合計", "状態")
	for _, w := range wallets {
		status := w.StatusLabel
		if w.IsFrozen {
			status += "（凍結: " + deref(w.FrozenReason) + "）"
		}
		t.Append([]string{
			w.ID,
			w.WalletTypeLabel,
			a.format.Currency(w.Balance),
			a.format.Currency(w.PendingBalance),
			a.format.Currency(w.TotalBalance),
			status,
		})
	}
	t.Render()
}
