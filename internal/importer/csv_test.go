package importer

import (
	"errors"
	"strings"
	"testing"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParser() *Parser {
	n := 0
	return &Parser{newID: func() string {
		n++
		return "generated-" + string(rune('0'+n))
	}}
}

func TestParse(t *testing.T) {
	input := `id,date,description,amount,category,redeemable,vacation,transfer,redemption_rate,linked_transaction_id,statement_ids
t1,2025-01-07,Supermarket,-45.50,Groceries,false,false,false,,,stmt-jan
,2025-01-08,"Dinner, downtown",(80.00),dining,yes,no,no,50%,,stmt-jan;stmt-card
t3,2025-01-10,Salary,"2,000.00",income,,,,,,
t4,2025-01-11,Card payment,-500,other,0,0,1,,t9,
`
	res, err := testParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, res.Rejected)
	require.Len(t, res.Transactions, 4)

	t1 := res.Transactions[0]
	assert.Equal(t, "t1", t1.ID)
	assert.True(t, t1.Date.Equal(core.NewDate(2025, 1, 7)))
	assert.Equal(t, -45.5, t1.Amount)
	assert.Equal(t, core.CategoryGroceries, t1.Category)
	assert.Equal(t, []string{"stmt-jan"}, t1.StatementIDs)

	t2 := res.Transactions[1]
	assert.Equal(t, "generated-1", t2.ID)
	assert.Equal(t, "Dinner, downtown", t2.Description)
	assert.Equal(t, -80.0, t2.Amount)
	assert.True(t, t2.Redeemable)
	assert.Equal(t, 0.5, t2.RedemptionRate)
	assert.Equal(t, []string{"stmt-jan", "stmt-card"}, t2.StatementIDs)

	assert.Equal(t, 2000.0, res.Transactions[2].Amount)
	assert.Nil(t, res.Transactions[2].LinkedTransactionID)

	t4 := res.Transactions[3]
	assert.True(t, t4.Transfer)
	require.NotNil(t, t4.LinkedTransactionID)
	assert.Equal(t, "t9", *t4.LinkedTransactionID)
}

func TestParseMinimalHeader(t *testing.T) {
	input := "Date,Amount,Category\n2025-03-01,-12.5,dining\n\n2025-03-02,-7,dining\n"
	res, err := testParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)
	assert.Equal(t, "generated-1", res.Transactions[0].ID)
	assert.Equal(t, "generated-2", res.Transactions[1].ID)
}

func TestParseRejectsRows(t *testing.T) {
	input := `id,date,amount,category,redeemable,redemption_rate
a,2025-01-07,-10,groceries,,
b,2025-13-01,-10,groceries,,
c,2025-01-07,ten,groceries,,
d,2025-01-07,-10,pets,,
e,2025-01-07,-10,groceries,maybe,
f,2025-01-07,-10,groceries,true,1.5
a,2025-01-08,-20,groceries,,
`
	res, err := testParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "a", res.Transactions[0].ID)

	rows := make([]int, len(res.Rejected))
	for i, r := range res.Rejected {
		rows[i] = r.Row
	}
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8}, rows)
	assert.ErrorIs(t, res.Rejected[0], core.ErrInvalidDate)
	assert.ErrorIs(t, res.Rejected[2], core.ErrInvalidCategory)
	assert.Contains(t, res.Rejected[5].Error(), "duplicate id")
}

func TestParseHeaderErrors(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrMissingHeader))

	_, err = NewParser().Parse(strings.NewReader("date,description\n2025-01-01,x\n"))
	assert.ErrorIs(t, err, ErrMissingHeader)
	assert.Contains(t, err.Error(), `"amount"`)
}

func TestNewParserGeneratesUUIDs(t *testing.T) {
	res, err := NewParser().Parse(strings.NewReader("date,amount,category\n2025-01-01,-1,other\n"))
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Len(t, res.Transactions[0].ID, 36)
}
