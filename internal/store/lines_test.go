package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farxc/anexo_c_reconciler/internal/reconcile"
)

func TestResultLinesRoundTrip(t *testing.T) {
	account := "7.1 Receita"
	credit := 750.0
	lines := []reconcile.Line{
		{Year: 2019, Tributo: "IRPJ Adição", AccountName: &account, Credit: &credit, Net: 100, Description: "Adição"},
		{Year: reconcile.GrandTotal, Tributo: reconcile.LineLALUR, Net: -100, Description: reconcile.LineLALUR},
	}

	rows := NewResultLines(7, 42, lines)
	require.Len(t, rows, 2)
	assert.Equal(t, "2019", rows[0].YearLabel)
	assert.Equal(t, "Grand Total", rows[1].YearLabel)
	assert.Equal(t, 1, rows[1].Position)
	assert.Equal(t, int64(42), rows[1].Contract)
	assert.Nil(t, rows[1].AccountName)

	for i, r := range rows {
		got, err := r.ToLine()
		require.NoError(t, err)
		assert.Equal(t, lines[i], got)
	}
}

func TestToLineRejectsBadYear(t *testing.T) {
	_, err := ResultLine{YearLabel: "soon"}.ToLine()
	assert.Error(t, err)
}
